// Package graph owns the vertices and edges of the sketch.
//
// The Store keeps both sequences in insertion order, which is also draw
// order: later vertices sit on top of earlier ones for hit testing. Edges
// hold live *model.Vertex references; deleting a vertex cascades to every
// incident edge so no edge ever points at a vertex outside the store.
//
// The Store is not safe for concurrent use. All mutation happens on the UI
// event loop.
package graph

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// Store is the graph aggregate: ordered vertices, ordered edges, a monotonic
// id counter and the defaults applied to new elements.
type Store struct {
	vertices []*model.Vertex
	edges    []*model.Edge
	nextID   int
	settings model.Settings
	revision uint64
}

// Option configures a Store at construction.
type Option func(*Store)

// WithSettings sets the defaults for new vertices and edges.
func WithSettings(s model.Settings) Option {
	return func(st *Store) {
		st.settings = s
	}
}

// New returns an empty store. Vertex ids start at 1.
func New(opts ...Option) *Store {
	s := &Store{
		nextID:   1,
		settings: model.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Vertices returns the vertex sequence. The slice is shared; callers must
// not append to it.
func (s *Store) Vertices() []*model.Vertex { return s.vertices }

// Edges returns the edge sequence. The slice is shared; callers must not
// append to it.
func (s *Store) Edges() []*model.Edge { return s.edges }

// Len returns the number of vertices.
func (s *Store) Len() int { return len(s.vertices) }

// NextID returns the id the next vertex will receive.
func (s *Store) NextID() int { return s.nextID }

// Settings returns the current defaults.
func (s *Store) Settings() model.Settings { return s.settings }

// SetSettings replaces the defaults. Existing elements are untouched.
func (s *Store) SetSettings(settings model.Settings) {
	s.settings = settings
	s.touch()
}

// Revision increases on every mutation. It lets callers skip recomputation
// when nothing changed.
func (s *Store) Revision() uint64 { return s.revision }

func (s *Store) touch() { s.revision++ }

// AddVertex appends a vertex at (x, y). An empty label is replaced by the
// smallest positive integer not already used as a label.
func (s *Store) AddVertex(x, y float64, label string) (*model.Vertex, error) {
	if label == "" {
		label = s.NextAutoLabel()
	} else if s.FindByLabel(label) != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	v := &model.Vertex{ID: s.nextID, X: x, Y: y, Label: label}
	s.nextID++
	s.vertices = append(s.vertices, v)
	s.touch()
	return v, nil
}

// NextAutoLabel returns the label AddVertex would assign to an unlabeled
// vertex.
func (s *Store) NextAutoLabel() string {
	used := make(map[string]struct{}, len(s.vertices))
	for _, v := range s.vertices {
		used[v.Label] = struct{}{}
	}
	for n := 1; ; n++ {
		l := strconv.Itoa(n)
		if _, ok := used[l]; !ok {
			return l
		}
	}
}

// AddEdge joins v1 and v2. The pair is unordered for existence purposes: an
// edge in either orientation makes the call fail with ErrEdgeAlreadyExists.
// Self-loops are not rejected here; the interaction layer never offers them.
func (s *Store) AddEdge(v1, v2 *model.Vertex, weight *float64, typ model.EdgeType, dir model.Direction) (*model.Edge, error) {
	if v1 == nil || v2 == nil {
		return nil, ErrNilVertex
	}
	if s.FindByID(v1.ID) != v1 {
		return nil, fmt.Errorf("%w: %q", ErrVertexNotFound, v1.Label)
	}
	if s.FindByID(v2.ID) != v2 {
		return nil, fmt.Errorf("%w: %q", ErrVertexNotFound, v2.Label)
	}
	if s.HasEdge(v1, v2) {
		return nil, fmt.Errorf("%w: %s-%s", ErrEdgeAlreadyExists, v1.Label, v2.Label)
	}
	if weight != nil {
		w := *weight
		if !finite(w) {
			return nil, fmt.Errorf("%w: weight %v", ErrNotFinite, w)
		}
		weight = &w
	}
	e := &model.Edge{From: v1, To: v2, Weight: weight, Type: typ, Direction: dir}
	s.edges = append(s.edges, e)
	s.touch()
	return e, nil
}

// AddDefaultEdge joins v1 and v2 using the store settings.
func (s *Store) AddDefaultEdge(v1, v2 *model.Vertex) (*model.Edge, error) {
	return s.AddEdge(v1, v2, s.settings.Weight, s.settings.EdgeType, s.settings.Direction)
}

// HasEdge reports whether any edge joins a and b in either orientation.
func (s *Store) HasEdge(a, b *model.Vertex) bool {
	return s.EdgeBetween(a, b) != nil
}

// EdgeBetween returns the edge joining a and b, or nil.
func (s *Store) EdgeBetween(a, b *model.Vertex) *model.Edge {
	for _, e := range s.edges {
		if e.Connects(a, b) {
			return e
		}
	}
	return nil
}

// RemoveVertex deletes the vertex and every edge incident to it. It reports
// whether a vertex was removed.
func (s *Store) RemoveVertex(id int) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.vertices = append(s.vertices[:idx], s.vertices[idx+1:]...)
	s.edges = filterEdges(s.edges, func(e *model.Edge) bool { return !e.Touches(id) })
	s.touch()
	return true
}

// RemoveVertices deletes every listed vertex with cascade in one pass and
// returns how many were removed.
func (s *Store) RemoveVertices(ids []int) int {
	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.vertices[:0]
	removed := 0
	for _, v := range s.vertices {
		if _, ok := drop[v.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	// zero the tail so dropped vertices can be collected
	for i := len(kept); i < len(s.vertices); i++ {
		s.vertices[i] = nil
	}
	s.vertices = kept
	if removed == 0 {
		return 0
	}
	s.edges = filterEdges(s.edges, func(e *model.Edge) bool {
		_, from := drop[e.From.ID]
		_, to := drop[e.To.ID]
		return !from && !to
	})
	s.touch()
	return removed
}

// RemoveEdges deletes every edge matching pred and returns the count.
func (s *Store) RemoveEdges(pred func(*model.Edge) bool) int {
	before := len(s.edges)
	s.edges = filterEdges(s.edges, func(e *model.Edge) bool { return !pred(e) })
	n := before - len(s.edges)
	if n > 0 {
		s.touch()
	}
	return n
}

// RemoveEdgeBetween deletes the edge joining a and b, if any.
func (s *Store) RemoveEdgeBetween(a, b *model.Vertex) bool {
	return s.RemoveEdges(func(e *model.Edge) bool { return e.Connects(a, b) }) > 0
}

func filterEdges(edges []*model.Edge, keep func(*model.Edge) bool) []*model.Edge {
	out := edges[:0]
	for _, e := range edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	for i := len(out); i < len(edges); i++ {
		edges[i] = nil
	}
	return out
}

// AdjacencyList maps each vertex id to its neighbors, built fresh from the
// edge sequence. Every edge contributes both directions regardless of its
// Direction attribute. Vertices without edges map to an empty slice.
func (s *Store) AdjacencyList() map[int][]*model.Vertex {
	adj := make(map[int][]*model.Vertex, len(s.vertices))
	for _, v := range s.vertices {
		adj[v.ID] = nil
	}
	for _, e := range s.edges {
		adj[e.From.ID] = append(adj[e.From.ID], e.To)
		adj[e.To.ID] = append(adj[e.To.ID], e.From)
	}
	return adj
}

// Degree returns the number of edges incident to id.
func (s *Store) Degree(id int) int {
	n := 0
	for _, e := range s.edges {
		if e.Touches(id) {
			n++
		}
	}
	return n
}

// FindByLabel returns the vertex with the given label, or nil.
func (s *Store) FindByLabel(label string) *model.Vertex {
	for _, v := range s.vertices {
		if v.Label == label {
			return v
		}
	}
	return nil
}

// FindByID returns the vertex with the given id, or nil.
func (s *Store) FindByID(id int) *model.Vertex {
	if i := s.indexOf(id); i >= 0 {
		return s.vertices[i]
	}
	return nil
}

func (s *Store) indexOf(id int) int {
	for i, v := range s.vertices {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// FindTopmost returns the vertex with the smallest Y, the first one in
// order on ties, or nil for an empty store.
func (s *Store) FindTopmost() *model.Vertex {
	var top *model.Vertex
	for _, v := range s.vertices {
		if top == nil || v.Y < top.Y {
			top = v
		}
	}
	return top
}

// VertexAt returns the topmost vertex whose disc contains (x, y), or nil.
// The disc radius is the vertex size (or the default size).
func (s *Store) VertexAt(x, y float64) *model.Vertex {
	for i := len(s.vertices) - 1; i >= 0; i-- {
		v := s.vertices[i]
		r := v.EffectiveSize(s.settings.VertexSize)
		if math.Hypot(v.X-x, v.Y-y) <= r {
			return v
		}
	}
	return nil
}

// MoveVertex updates the vertex position in place.
func (s *Store) MoveVertex(id int, x, y float64) error {
	v := s.FindByID(id)
	if v == nil {
		return fmt.Errorf("%w: id %d", ErrVertexNotFound, id)
	}
	if v.X == x && v.Y == y {
		return nil
	}
	v.X, v.Y = x, y
	s.touch()
	return nil
}

// RenameVertex changes the label, rejecting empty labels and labels held by
// another vertex. Renaming a vertex to its own label is a no-op.
func (s *Store) RenameVertex(id int, label string) error {
	v := s.FindByID(id)
	if v == nil {
		return fmt.Errorf("%w: id %d", ErrVertexNotFound, id)
	}
	if label == "" {
		return ErrEmptyLabel
	}
	if other := s.FindByLabel(label); other != nil && other != v {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	if v.Label != label {
		v.Label = label
		s.touch()
	}
	return nil
}

// SetVertexSize sets the size override; 0 restores the default.
func (s *Store) SetVertexSize(id int, size float64) error {
	v := s.FindByID(id)
	if v == nil {
		return fmt.Errorf("%w: id %d", ErrVertexNotFound, id)
	}
	if !finite(size) {
		return fmt.Errorf("%w: size %v", ErrNotFinite, size)
	}
	if size < 0 {
		size = 0
	}
	if v.Size != size {
		v.Size = size
		s.touch()
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Clear removes every vertex and edge and resets the id counter. Settings
// are kept.
func (s *Store) Clear() {
	s.vertices = nil
	s.edges = nil
	s.nextID = 1
	s.touch()
}

// Replace swaps in the contents of other. other must not be used afterwards.
func (s *Store) Replace(other *Store) {
	s.vertices = other.vertices
	s.edges = other.edges
	s.nextID = other.nextID
	s.settings = other.settings
	s.touch()
}

// Restore sets the raw contents, used by deserialization. Callers are
// responsible for the endpoint invariant.
func (s *Store) Restore(vertices []*model.Vertex, edges []*model.Edge, nextID int) {
	s.vertices = vertices
	s.edges = edges
	s.nextID = nextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	for _, v := range vertices {
		if v.ID >= s.nextID {
			s.nextID = v.ID + 1
		}
	}
	s.touch()
}
