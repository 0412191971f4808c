package traversal

import "github.com/vanderheijden86/graphsketch/pkg/model"

// frame is one level of the explicit DFS stack: the vertex being explored
// and the index of the next neighbor to try.
type frame struct {
	v    *model.Vertex
	next int
}

// dfsWalker is a depth-first search with an explicit stack. It visits in
// the same order as the recursive form: mark on entry, try neighbors in
// adjacency order, record the parent on first discovery and stop as soon as
// the target is entered.
type dfsWalker struct {
	adj     Adjacency
	root    *model.Vertex
	target  *model.Vertex
	stack   []frame
	visited map[int]bool
	parent  map[int]*model.Vertex
	enter   *model.Vertex
	done    bool
}

// NewDFS returns a depth-first walker from root looking for target.
func NewDFS(adj Adjacency, root, target *model.Vertex) Walker {
	return &dfsWalker{
		adj:     adj,
		root:    root,
		target:  target,
		visited: make(map[int]bool, len(adj)),
		parent:  make(map[int]*model.Vertex, len(adj)),
		enter:   root,
	}
}

// Next enters exactly one new vertex, backtracking through exhausted frames
// as needed, or reports NotFound once the stack empties.
func (w *dfsWalker) Next() (Step, bool) {
	if w.done {
		return Step{}, false
	}
	for {
		if v := w.enter; v != nil {
			w.enter = nil
			w.visited[v.ID] = true
			if v == w.target {
				w.done = true
				return Step{Vertex: v, Result: Found, Path: buildPath(w.parent, w.root, w.target)}, true
			}
			w.stack = append(w.stack, frame{v: v})
			return Step{Vertex: v}, true
		}

		if len(w.stack) == 0 {
			w.done = true
			return Step{Result: NotFound}, true
		}

		top := &w.stack[len(w.stack)-1]
		nbrs := w.adj[top.v.ID]
		for top.next < len(nbrs) {
			nbr := nbrs[top.next]
			top.next++
			if !w.visited[nbr.ID] {
				w.parent[nbr.ID] = top.v
				w.enter = nbr
				break
			}
		}
		if w.enter == nil {
			w.stack = w.stack[:len(w.stack)-1]
		}
	}
}
