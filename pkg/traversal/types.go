// Package traversal implements breadth-first search, depth-first search and
// hop-count shortest paths over a graph adjacency view, plus the stepping
// Engine that animates one search at a time.
//
// Searches are exposed as Walkers that produce one visited vertex per call
// to Next, so a caller can pause between steps (a UI timer, a paced loop)
// and abandon the walk at any point. Traversal never mutates the graph.
package traversal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// Sentinel errors for traversal preconditions.
var (
	// ErrRootDisconnected is returned when the root vertex has no neighbors.
	// The search never starts.
	ErrRootDisconnected = errors.New("traversal: root must be connected")

	// ErrNoRoot is returned when no root vertex was supplied.
	ErrNoRoot = errors.New("traversal: no root vertex")

	// ErrNoTarget is returned when no target vertex was supplied.
	ErrNoTarget = errors.New("traversal: no target vertex")

	// ErrVertexNotFound is returned when root or target is absent from the
	// adjacency view.
	ErrVertexNotFound = errors.New("traversal: vertex not found")
)

// Adjacency maps a vertex id to its neighbors in adjacency order.
type Adjacency = map[int][]*model.Vertex

// AdjacencySource is anything that can produce a fresh adjacency view.
// *graph.Store satisfies it.
type AdjacencySource interface {
	AdjacencyList() map[int][]*model.Vertex
}

// Kind selects the search algorithm.
type Kind int

const (
	BFS Kind = iota
	DFS
)

// String returns "BFS" or "DFS".
func (k Kind) String() string {
	if k == DFS {
		return "DFS"
	}
	return "BFS"
}

// ParseKind accepts "bfs" or "dfs" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bfs":
		return BFS, nil
	case "dfs":
		return DFS, nil
	}
	return BFS, fmt.Errorf("unknown search kind %q (want bfs or dfs)", s)
}

// Result is the outcome carried by a Step.
type Result int

const (
	// Pending means the walk has more steps.
	Pending Result = iota
	// Found means the target was visited; Step.Path is set.
	Found
	// NotFound means every reachable vertex was visited without meeting the
	// target.
	NotFound
)

// String returns a lower-case name for the result.
func (r Result) String() string {
	switch r {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	default:
		return "pending"
	}
}

// Step is one unit of search progress. Vertex is the vertex visited in this
// step; it is nil only on the terminal NotFound step.
type Step struct {
	Vertex *model.Vertex
	Result Result
	Path   []*model.Vertex
}

// Done reports whether this is the last step of the walk.
func (s Step) Done() bool { return s.Result != Pending }

// Walker yields the steps of one search. After the terminal step Next
// returns false.
type Walker interface {
	Next() (Step, bool)
}

// New returns a walker of the given kind.
func New(kind Kind, adj Adjacency, root, target *model.Vertex) Walker {
	if kind == DFS {
		return NewDFS(adj, root, target)
	}
	return NewBFS(adj, root, target)
}

// CheckRoot validates the search preconditions against adj.
func CheckRoot(adj Adjacency, root, target *model.Vertex) error {
	if root == nil {
		return ErrNoRoot
	}
	if target == nil {
		return ErrNoTarget
	}
	nbrs, ok := adj[root.ID]
	if !ok {
		return fmt.Errorf("%w: root %q", ErrVertexNotFound, root.Label)
	}
	if _, ok := adj[target.ID]; !ok {
		return fmt.Errorf("%w: target %q", ErrVertexNotFound, target.Label)
	}
	if len(nbrs) == 0 {
		return fmt.Errorf("%w: %q has no edges", ErrRootDisconnected, root.Label)
	}
	return nil
}

// buildPath walks parent links from target back to root and reverses.
func buildPath(parent map[int]*model.Vertex, root, target *model.Vertex) []*model.Vertex {
	path := []*model.Vertex{target}
	for cur := target; cur != root; {
		prev, ok := parent[cur.ID]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
