package graph

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/vanderheijden86/graphsketch/pkg/model"

	"pgregory.net/rapid"
)

func mustVertex(t *testing.T, s *Store, x, y float64, label string) *model.Vertex {
	t.Helper()
	v, err := s.AddVertex(x, y, label)
	if err != nil {
		t.Fatalf("AddVertex(%q): %v", label, err)
	}
	return v
}

func TestAddVertex_AutoLabels(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "")
	b := mustVertex(t, s, 10, 0, "")
	if a.Label != "1" || b.Label != "2" {
		t.Fatalf("labels = %q, %q; want 1, 2", a.Label, b.Label)
	}
	c := mustVertex(t, s, 20, 0, "")
	if c.Label != "3" {
		t.Fatalf("third label = %q; want 3", c.Label)
	}

	// Freed labels are reused, smallest first.
	s.RemoveVertex(b.ID)
	d := mustVertex(t, s, 30, 0, "")
	if d.Label != "2" {
		t.Fatalf("label after delete = %q; want 2", d.Label)
	}

	// Ids never go backwards.
	if d.ID <= c.ID {
		t.Errorf("id %d not greater than %d", d.ID, c.ID)
	}
}

func TestAddVertex_SkipsExplicitNumericLabels(t *testing.T) {
	s := New()
	mustVertex(t, s, 0, 0, "1")
	mustVertex(t, s, 0, 0, "3")
	v := mustVertex(t, s, 0, 0, "")
	if v.Label != "2" {
		t.Errorf("label = %q; want 2", v.Label)
	}
	v = mustVertex(t, s, 0, 0, "")
	if v.Label != "4" {
		t.Errorf("label = %q; want 4", v.Label)
	}
}

func TestAddVertex_DuplicateLabel(t *testing.T) {
	s := New()
	mustVertex(t, s, 0, 0, "A")
	before := s.Revision()
	_, err := s.AddVertex(5, 5, "A")
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("want ErrDuplicateLabel, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("store mutated on duplicate: %d vertices", s.Len())
	}
	if s.Revision() != before {
		t.Error("revision advanced on rejected add")
	}
}

func TestAddEdge_SymmetricExistence(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	b := mustVertex(t, s, 10, 0, "B")

	if _, err := s.AddEdge(a, b, nil, model.EdgeStraight, model.DirectedForward); err != nil {
		t.Fatalf("first AddEdge: %v", err)
	}
	_, err := s.AddEdge(b, a, nil, model.EdgeCurved, model.Undirected)
	if !errors.Is(err, ErrEdgeAlreadyExists) {
		t.Fatalf("reversed AddEdge: want ErrEdgeAlreadyExists, got %v", err)
	}
	if len(s.Edges()) != 1 {
		t.Errorf("edge count = %d; want 1", len(s.Edges()))
	}
}

func TestAddEdge_CopiesWeight(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	b := mustVertex(t, s, 10, 0, "B")
	w := 3.0
	e, err := s.AddEdge(a, b, &w, model.EdgeStraight, model.Undirected)
	if err != nil {
		t.Fatal(err)
	}
	w = 9
	if *e.Weight != 3 {
		t.Errorf("edge weight aliased caller variable: %v", *e.Weight)
	}
}

func TestAddEdge_ForeignVertex(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	stranger := &model.Vertex{ID: 99, Label: "Z"}
	if _, err := s.AddEdge(a, stranger, nil, model.EdgeStraight, model.Undirected); !errors.Is(err, ErrVertexNotFound) {
		t.Errorf("want ErrVertexNotFound, got %v", err)
	}
	if _, err := s.AddEdge(nil, a, nil, model.EdgeStraight, model.Undirected); !errors.Is(err, ErrNilVertex) {
		t.Errorf("want ErrNilVertex, got %v", err)
	}
}

func TestAddEdge_SelfLoopAllowedByStore(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	if _, err := s.AddEdge(a, a, nil, model.EdgeStraight, model.Undirected); err != nil {
		t.Fatalf("store should not forbid self-loops: %v", err)
	}
}

func TestNonFiniteNumbersRejected(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	b := mustVertex(t, s, 10, 0, "B")
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		w := f
		if _, err := s.AddEdge(a, b, &w, model.EdgeStraight, model.Undirected); !errors.Is(err, ErrNotFinite) {
			t.Errorf("weight %v: want ErrNotFinite, got %v", f, err)
		}
		if err := s.SetVertexSize(a.ID, f); !errors.Is(err, ErrNotFinite) {
			t.Errorf("size %v: want ErrNotFinite, got %v", f, err)
		}
	}
	if len(s.Edges()) != 0 || a.Size != 0 {
		t.Errorf("store mutated: edges=%d size=%v", len(s.Edges()), a.Size)
	}
}

func TestRemoveVertex_Cascades(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	b := mustVertex(t, s, 10, 0, "B")
	c := mustVertex(t, s, 20, 0, "C")
	s.AddDefaultEdge(a, b)
	s.AddDefaultEdge(b, c)
	s.AddDefaultEdge(a, c)

	if !s.RemoveVertex(b.ID) {
		t.Fatal("RemoveVertex returned false")
	}
	for _, e := range s.Edges() {
		if e.Touches(b.ID) {
			t.Errorf("edge %s still references removed vertex", e)
		}
	}
	if len(s.Edges()) != 1 {
		t.Errorf("edge count = %d; want 1", len(s.Edges()))
	}
	if s.RemoveVertex(b.ID) {
		t.Error("second RemoveVertex should report false")
	}
}

func TestRemoveVertices_Batch(t *testing.T) {
	s := New()
	var vs []*model.Vertex
	for i := 0; i < 5; i++ {
		vs = append(vs, mustVertex(t, s, float64(i*10), 0, ""))
	}
	for i := 0; i < 4; i++ {
		s.AddDefaultEdge(vs[i], vs[i+1])
	}
	n := s.RemoveVertices([]int{vs[1].ID, vs[3].ID, 404})
	if n != 2 {
		t.Fatalf("removed %d; want 2", n)
	}
	if got := model.Labels(s.Vertices()); !reflect.DeepEqual(got, []string{"1", "3", "5"}) {
		t.Errorf("remaining = %v", got)
	}
	if len(s.Edges()) != 0 {
		t.Errorf("edges left: %d", len(s.Edges()))
	}
}

func TestRemoveEdges_Predicate(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	b := mustVertex(t, s, 10, 0, "B")
	c := mustVertex(t, s, 20, 0, "C")
	s.AddDefaultEdge(a, b)
	s.AddEdge(b, c, model.Float(2), model.EdgeCurved, model.Undirected)

	n := s.RemoveEdges(func(e *model.Edge) bool { return e.Type == model.EdgeCurved })
	if n != 1 || len(s.Edges()) != 1 {
		t.Fatalf("removed %d, left %d", n, len(s.Edges()))
	}
	if !s.RemoveEdgeBetween(b, a) {
		t.Error("RemoveEdgeBetween should accept reversed order")
	}
}

func TestAdjacencyList_BothDirections(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	b := mustVertex(t, s, 10, 0, "B")
	c := mustVertex(t, s, 20, 0, "C")
	d := mustVertex(t, s, 30, 0, "D")
	s.AddEdge(a, b, nil, model.EdgeStraight, model.DirectedForward)
	s.AddEdge(c, b, nil, model.EdgeStraight, model.DirectedBackward)

	adj := s.AdjacencyList()
	if got := model.Labels(adj[b.ID]); !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Errorf("neighbors of B = %v", got)
	}
	if got := model.Labels(adj[a.ID]); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("neighbors of A = %v", got)
	}
	if nbrs, ok := adj[d.ID]; !ok || len(nbrs) != 0 {
		t.Errorf("isolated D: ok=%v nbrs=%v", ok, nbrs)
	}
}

func TestFindTopmost(t *testing.T) {
	s := New()
	if s.FindTopmost() != nil {
		t.Fatal("empty store should have no topmost vertex")
	}
	mustVertex(t, s, 0, 50, "A")
	b := mustVertex(t, s, 0, 10, "B")
	mustVertex(t, s, 0, 10, "C")
	if got := s.FindTopmost(); got != b {
		t.Errorf("topmost = %v; want B (first on tie)", got)
	}
}

func TestVertexAt_TopmostWins(t *testing.T) {
	s := New()
	mustVertex(t, s, 0, 0, "A")
	b := mustVertex(t, s, 5, 0, "B")
	if got := s.VertexAt(3, 0); got != b {
		t.Errorf("VertexAt = %v; want B", got)
	}
	if got := s.VertexAt(500, 500); got != nil {
		t.Errorf("VertexAt far away = %v; want nil", got)
	}
}

func TestRenameVertex(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	mustVertex(t, s, 0, 0, "B")

	if err := s.RenameVertex(a.ID, "B"); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("want ErrDuplicateLabel, got %v", err)
	}
	if a.Label != "A" {
		t.Errorf("label changed on rejected rename: %q", a.Label)
	}
	if err := s.RenameVertex(a.ID, ""); !errors.Is(err, ErrEmptyLabel) {
		t.Errorf("want ErrEmptyLabel, got %v", err)
	}
	if err := s.RenameVertex(a.ID, "A"); err != nil {
		t.Errorf("rename to own label: %v", err)
	}
	if err := s.RenameVertex(a.ID, "Alpha"); err != nil || a.Label != "Alpha" {
		t.Errorf("rename failed: %v, %q", err, a.Label)
	}
	if err := s.RenameVertex(404, "x"); !errors.Is(err, ErrVertexNotFound) {
		t.Errorf("want ErrVertexNotFound, got %v", err)
	}
}

func TestMoveVertex_InPlace(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "A")
	if err := s.MoveVertex(a.ID, 40, 60); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || s.Vertices()[0] != a || a.X != 40 || a.Y != 60 {
		t.Errorf("move did not update in place: %+v", *a)
	}
}

func TestClear(t *testing.T) {
	s := New()
	a := mustVertex(t, s, 0, 0, "")
	b := mustVertex(t, s, 0, 0, "")
	s.AddDefaultEdge(a, b)
	s.Clear()
	if s.Len() != 0 || len(s.Edges()) != 0 || s.NextID() != 1 {
		t.Errorf("clear left state: %d vertices, %d edges, next id %d", s.Len(), len(s.Edges()), s.NextID())
	}
}

// Property: auto labels are unique and always the smallest unused positive
// integer, whatever sequence of adds and removes preceded them.
func TestProperty_AutoLabelSmallestUnused(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New()
		ops := rapid.SliceOfN(rapid.IntRange(0, 9), 1, 60).Draw(t, "ops")
		for _, op := range ops {
			if op < 7 || s.Len() == 0 {
				want := smallestUnused(s)
				v, err := s.AddVertex(0, 0, "")
				if err != nil {
					t.Fatalf("AddVertex: %v", err)
				}
				if v.Label != want {
					t.Fatalf("auto label %q; want %q", v.Label, want)
				}
				continue
			}
			idx := rapid.IntRange(0, s.Len()-1).Draw(t, "victim")
			s.RemoveVertex(s.Vertices()[idx].ID)
		}
		seen := map[string]bool{}
		for _, v := range s.Vertices() {
			if seen[v.Label] {
				t.Fatalf("duplicate label %q", v.Label)
			}
			seen[v.Label] = true
		}
	})
}

func smallestUnused(s *Store) string {
	for n := 1; ; n++ {
		if s.FindByLabel(strconv.Itoa(n)) == nil {
			return strconv.Itoa(n)
		}
	}
}

// Property: after any sequence of edge insertions and vertex removals, every
// edge endpoint is present and no unordered pair appears twice.
func TestProperty_CascadeAndPairUniqueness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New()
		n := rapid.IntRange(2, 12).Draw(t, "n")
		for i := 0; i < n; i++ {
			s.AddVertex(float64(i), 0, "")
		}
		pairs := rapid.IntRange(0, 30).Draw(t, "pairs")
		for i := 0; i < pairs; i++ {
			vs := s.Vertices()
			a := vs[rapid.IntRange(0, len(vs)-1).Draw(t, "a")]
			b := vs[rapid.IntRange(0, len(vs)-1).Draw(t, "b")]
			if a == b {
				continue
			}
			had := s.HasEdge(a, b)
			_, err := s.AddDefaultEdge(a, b)
			if had != errors.Is(err, ErrEdgeAlreadyExists) {
				t.Fatalf("had=%v err=%v", had, err)
			}
		}
		removals := rapid.IntRange(0, n-1).Draw(t, "removals")
		for i := 0; i < removals; i++ {
			vs := s.Vertices()
			s.RemoveVertex(vs[rapid.IntRange(0, len(vs)-1).Draw(t, "rm")].ID)
		}

		present := map[int]bool{}
		for _, v := range s.Vertices() {
			present[v.ID] = true
		}
		type pair struct{ lo, hi int }
		seen := map[pair]bool{}
		for _, e := range s.Edges() {
			if !present[e.From.ID] || !present[e.To.ID] {
				t.Fatalf("dangling edge %s", e)
			}
			p := pair{min(e.From.ID, e.To.ID), max(e.From.ID, e.To.ID)}
			if seen[p] {
				t.Fatalf("pair %v stored twice", p)
			}
			seen[p] = true
		}
	})
}
