// Package analysis computes a structural summary of a graph using gonum:
// connected components, density, degree statistics, cut vertices, core
// numbers and, optionally, PageRank and betweenness centrality.
//
// Every edge counts as an unordered pair, matching how traversal treats
// the graph. Direction attributes only feed the DirectedAcyclic check.
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
	gsgraph "github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// Status values for the centrality pass.
const (
	StatusComputed = "computed"
	StatusSkipped  = "skipped"
	StatusTimeout  = "timeout"
)

// Summary describes the structure of one graph. Label lists follow the
// store's insertion order.
type Summary struct {
	Vertices int `json:"vertices"`
	Edges    int `json:"edges"`

	Components [][]string `json:"components"`
	Isolated   []string   `json:"isolated,omitempty"`

	Density   float64 `json:"density"`
	MaxDegree int     `json:"max_degree"`
	AvgDegree float64 `json:"avg_degree"`

	// SelfLoops counts edges joining a vertex to itself. They are left out
	// of the gonum projection.
	SelfLoops int `json:"self_loops,omitempty"`
	// Cyclic reports whether any component has more edges than a tree.
	// A self-loop is a cycle.
	Cyclic bool `json:"cyclic"`
	// DirectedEdges counts edges carrying an arrowhead; DirectedAcyclic
	// reports whether those arcs alone form a DAG.
	DirectedEdges   int  `json:"directed_edges"`
	DirectedAcyclic bool `json:"directed_acyclic"`

	Articulation []string       `json:"articulation,omitempty"`
	Core         map[string]int `json:"core,omitempty"`
	MaxCore      int            `json:"max_core"`

	PageRank          map[string]float64 `json:"pagerank,omitempty"`
	Betweenness       map[string]float64 `json:"betweenness,omitempty"`
	CentralityStatus  string             `json:"centrality_status"`
	CentralityComment string             `json:"centrality_comment,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Connected reports whether the graph has at most one component.
func (s Summary) Connected() bool { return len(s.Components) <= 1 }

// String is a one-line description for status bars.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d vertices, %d edges, %d components, density %.2f",
		s.Vertices, s.Edges, len(s.Components), s.Density)
	if n := len(s.Isolated); n > 0 {
		fmt.Fprintf(&b, ", %d isolated", n)
	}
	if n := len(s.Articulation); n > 0 {
		fmt.Fprintf(&b, ", %d cut", n)
	}
	return b.String()
}

// Ranked is one entry of a centrality ranking.
type Ranked struct {
	Label string
	Score float64
}

// Top returns the n highest scores, ties broken by label.
func Top(scores map[string]float64, n int) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for label, score := range scores {
		out = append(out, Ranked{Label: label, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// view is the gonum projection of a store.
type view struct {
	vertices []*model.Vertex
	order    map[int64]int
	und      *simple.UndirectedGraph
	arcs     *simple.DirectedGraph
	directed int
	loops    int
	arcLoops int // self-loops carrying an arrowhead
}

func project(s *gsgraph.Store) *view {
	v := &view{
		vertices: s.Vertices(),
		order:    make(map[int64]int, s.Len()),
		und:      simple.NewUndirectedGraph(),
		arcs:     simple.NewDirectedGraph(),
	}
	for i, vx := range v.vertices {
		id := int64(vx.ID)
		v.order[id] = i
		v.und.AddNode(simple.Node(id))
		v.arcs.AddNode(simple.Node(id))
	}
	for _, e := range s.Edges() {
		if e.From.ID == e.To.ID {
			// simple graphs refuse self edges
			v.loops++
			if e.Direction != model.Undirected {
				v.directed++
				v.arcLoops++
			}
			continue
		}
		from, to := simple.Node(e.From.ID), simple.Node(e.To.ID)
		v.und.SetEdge(simple.Edge{F: from, T: to})
		switch e.Direction {
		case model.DirectedForward:
			v.arcs.SetEdge(simple.Edge{F: from, T: to})
			v.directed++
		case model.DirectedBackward:
			v.arcs.SetEdge(simple.Edge{F: to, T: from})
			v.directed++
		}
	}
	return v
}

func (v *view) label(id int64) string { return v.vertices[v.order[id]].Label }

// labels maps ids to labels in insertion order.
func (v *view) labels(ids []int64) []string {
	sort.Slice(ids, func(i, j int) bool { return v.order[ids[i]] < v.order[ids[j]] })
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = v.label(id)
	}
	return out
}

// Summarize analyses s under cfg. The store is only read.
func Summarize(s *gsgraph.Store, cfg Config) Summary {
	done := metrics.Timer(metrics.Analysis)
	defer done()
	start := time.Now()

	v := project(s)
	sum := Summary{
		Vertices:         len(v.vertices),
		Edges:            len(s.Edges()),
		DirectedEdges:    v.directed,
		SelfLoops:        v.loops,
		CentralityStatus: StatusSkipped,
	}

	sum.Components = v.components()
	for _, c := range sum.Components {
		if len(c) == 1 {
			sum.Isolated = append(sum.Isolated, c[0])
		}
	}
	plain := sum.Edges - v.loops
	sum.Cyclic = v.loops > 0 || plain > sum.Vertices-len(sum.Components)

	if n := sum.Vertices; n > 1 {
		sum.Density = float64(2*plain) / float64(n*(n-1))
	}
	if sum.Vertices > 0 {
		sum.AvgDegree = float64(2*sum.Edges) / float64(sum.Vertices)
	}
	for _, vx := range v.vertices {
		if d := v.und.From(int64(vx.ID)).Len(); d > sum.MaxDegree {
			sum.MaxDegree = d
		}
	}

	_, err := topo.Sort(v.arcs)
	sum.DirectedAcyclic = err == nil && v.arcLoops == 0

	if cfg.ComputeArticulation {
		var cut []int64
		for id := range articulationPoints(v.und) {
			cut = append(cut, id)
		}
		sum.Articulation = v.labels(cut)
	}
	if cfg.ComputeCores {
		cores := coreNumbers(v.und)
		sum.Core = make(map[string]int, len(cores))
		for id, k := range cores {
			sum.Core[v.label(id)] = k
			if k > sum.MaxCore {
				sum.MaxCore = k
			}
		}
	}

	switch {
	case !cfg.ComputeCentrality:
		sum.CentralityComment = cfg.SkipReason
	case sum.Vertices == 0:
		sum.CentralityStatus = StatusComputed
	default:
		v.centrality(&sum, cfg)
	}

	sum.Elapsed = time.Since(start)
	debug.LogTiming("analysis.Summarize", sum.Elapsed)
	return sum
}

func (v *view) components() [][]string {
	comps := topo.ConnectedComponents(v.und)
	groups := make([][]int64, 0, len(comps))
	for _, c := range comps {
		ids := make([]int64, len(c))
		for i, n := range c {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(i, j int) bool { return v.order[ids[i]] < v.order[ids[j]] })
		groups = append(groups, ids)
	}
	sort.Slice(groups, func(i, j int) bool { return v.order[groups[i][0]] < v.order[groups[j][0]] })

	out := make([][]string, len(groups))
	for i, ids := range groups {
		out[i] = v.labels(ids)
	}
	return out
}

func (v *view) centrality(sum *Summary, cfg Config) {
	// PageRank wants arcs; an undirected edge is a pair of them.
	both := simple.NewDirectedGraph()
	nodes := v.und.Nodes()
	for nodes.Next() {
		both.AddNode(nodes.Node())
	}
	edges := v.und.Edges()
	for edges.Next() {
		e := edges.Edge()
		both.SetEdge(simple.Edge{F: e.From(), T: e.To()})
		both.SetEdge(simple.Edge{F: e.To(), T: e.From()})
	}

	pr, ok := withTimeout(cfg.CentralityTimeout, func() map[int64]float64 {
		return network.PageRank(both, 0.85, 1e-6)
	})
	if !ok {
		sum.CentralityStatus = StatusTimeout
		sum.CentralityComment = "pagerank exceeded " + cfg.CentralityTimeout.String()
		return
	}
	sum.PageRank = v.byLabel(pr)

	if cfg.BetweennessMaxVertices > 0 && sum.Vertices > cfg.BetweennessMaxVertices {
		sum.CentralityStatus = StatusComputed
		sum.CentralityComment = fmt.Sprintf("betweenness skipped above %d vertices", cfg.BetweennessMaxVertices)
		return
	}
	bw, ok := withTimeout(cfg.CentralityTimeout, func() map[int64]float64 {
		return network.Betweenness(v.und)
	})
	if !ok {
		sum.CentralityStatus = StatusTimeout
		sum.CentralityComment = "betweenness exceeded " + cfg.CentralityTimeout.String()
		return
	}
	// gonum omits zero scores
	sum.Betweenness = make(map[string]float64, sum.Vertices)
	for _, vx := range v.vertices {
		sum.Betweenness[vx.Label] = bw[int64(vx.ID)]
	}
	sum.CentralityStatus = StatusComputed
}

func (v *view) byLabel(scores map[int64]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for id, s := range scores {
		out[v.label(id)] = s
	}
	return out
}

// withTimeout runs fn on its own goroutine. A zero timeout waits forever.
func withTimeout[T any](timeout time.Duration, fn func() T) (T, bool) {
	done := make(chan T, 1)
	go func() {
		defer close(done)
		defer func() {
			// a panic reads as a timeout in the caller
			_ = recover()
		}()
		done <- fn()
	}()
	if timeout <= 0 {
		res, ok := <-done
		return res, ok
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res, ok := <-done:
		return res, ok
	case <-timer.C:
		var zero T
		return zero, false
	}
}

// coreNumbers peels vertices of degree below k for increasing k. Isolated
// vertices have core 0.
func coreNumbers(g *simple.UndirectedGraph) map[int64]int {
	deg := make(map[int64]int)
	adj := make(map[int64][]int64)
	nodes := g.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		it := g.From(id)
		for it.Next() {
			adj[id] = append(adj[id], it.Node().ID())
		}
		deg[id] = len(adj[id])
	}

	core := make(map[int64]int, len(deg))
	removed := make(map[int64]bool, len(deg))
	maxDeg := 0
	for _, d := range deg {
		maxDeg = max(maxDeg, d)
	}

	for k := 1; k <= maxDeg; k++ {
		var queue []int64
		for id, d := range deg {
			if !removed[id] && d < k {
				queue = append(queue, id)
			}
		}
		for len(queue) > 0 {
			id := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			if removed[id] {
				continue
			}
			removed[id] = true
			core[id] = k - 1
			for _, nbr := range adj[id] {
				if removed[nbr] {
					continue
				}
				deg[nbr]--
				if deg[nbr] < k {
					queue = append(queue, nbr)
				}
			}
		}
	}
	for id := range deg {
		if !removed[id] {
			core[id] = maxDeg
		}
	}
	return core
}

// articulationPoints finds cut vertices with Tarjan's low-link DFS.
func articulationPoints(g graph.Undirected) map[int64]bool {
	const noParent int64 = -1
	var clock int
	disc := make(map[int64]int)
	low := make(map[int64]int)
	parent := make(map[int64]int64)
	cut := make(map[int64]bool)

	var visit func(id int64)
	visit = func(id int64) {
		clock++
		disc[id], low[id] = clock, clock
		children := 0

		it := g.From(id)
		for it.Next() {
			nbr := it.Node().ID()
			if disc[nbr] == 0 {
				parent[nbr] = id
				children++
				visit(nbr)
				low[id] = min(low[id], low[nbr])
				if parent[id] == noParent && children > 1 {
					cut[id] = true
				}
				if parent[id] != noParent && low[nbr] >= disc[id] {
					cut[id] = true
				}
			} else if nbr != parent[id] {
				low[id] = min(low[id], disc[nbr])
			}
		}
	}

	nodes := g.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		if disc[id] == 0 {
			parent[id] = noParent
			visit(id)
		}
	}
	return cut
}
