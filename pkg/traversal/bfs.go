package traversal

import "github.com/vanderheijden86/graphsketch/pkg/model"

// bfsWalker is a FIFO breadth-first search. A vertex is marked when it is
// enqueued so it is never queued twice; it is emitted when dequeued.
type bfsWalker struct {
	adj    Adjacency
	root   *model.Vertex
	target *model.Vertex
	queue  []*model.Vertex
	seen   map[int]bool
	parent map[int]*model.Vertex
	done   bool
}

// NewBFS returns a breadth-first walker from root looking for target.
func NewBFS(adj Adjacency, root, target *model.Vertex) Walker {
	w := &bfsWalker{
		adj:    adj,
		root:   root,
		target: target,
		seen:   make(map[int]bool, len(adj)),
		parent: make(map[int]*model.Vertex, len(adj)),
	}
	if root != nil {
		w.queue = append(w.queue, root)
		w.seen[root.ID] = true
	}
	return w
}

// Next dequeues one vertex, reports it as visited and then enqueues its
// unseen neighbors with parent links.
func (w *bfsWalker) Next() (Step, bool) {
	if w.done {
		return Step{}, false
	}
	if len(w.queue) == 0 {
		w.done = true
		return Step{Result: NotFound}, true
	}
	cur := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]

	if cur == w.target {
		w.done = true
		return Step{Vertex: cur, Result: Found, Path: buildPath(w.parent, w.root, w.target)}, true
	}

	for _, nbr := range w.adj[cur.ID] {
		if w.seen[nbr.ID] {
			continue
		}
		w.seen[nbr.ID] = true
		w.parent[nbr.ID] = cur
		w.queue = append(w.queue, nbr)
	}
	return Step{Vertex: cur}, true
}
