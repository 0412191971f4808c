package editmode

import (
	"testing"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatEdge struct {
	From, To  int
	Weight    float64
	HasWeight bool
	Type      model.EdgeType
	Direction model.Direction
}

// flatten renders the store as plain values for structural comparison.
func flatten(s *graph.Store) ([]model.Vertex, []flatEdge) {
	vs := make([]model.Vertex, 0, s.Len())
	for _, v := range s.Vertices() {
		vs = append(vs, *v)
	}
	es := make([]flatEdge, 0, len(s.Edges()))
	for _, e := range s.Edges() {
		fe := flatEdge{From: e.From.ID, To: e.To.ID, Type: e.Type, Direction: e.Direction}
		if e.Weight != nil {
			fe.Weight, fe.HasWeight = *e.Weight, true
		}
		es = append(es, fe)
	}
	return vs, es
}

// square builds A-B-C-D-A with a weighted diagonal A-C.
func square(t *testing.T) (*graph.Store, []*model.Vertex) {
	t.Helper()
	s := graph.New()
	var vs []*model.Vertex
	for i, l := range []string{"A", "B", "C", "D"} {
		v, err := s.AddVertex(float64(i*10), float64(i%2*10), l)
		require.NoError(t, err)
		vs = append(vs, v)
	}
	for i := range vs {
		_, err := s.AddDefaultEdge(vs[i], vs[(i+1)%4])
		require.NoError(t, err)
	}
	_, err := s.AddEdge(vs[0], vs[2], model.Float(2.5), model.EdgeCurved, model.DirectedForward)
	require.NoError(t, err)
	return s, vs
}

func TestEdit_PreviewDoesNotTouchStore(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[0].ID))
	assert.Equal(t, Edit, c.Mode())

	require.NoError(t, c.SetLabel("Alpha"))
	require.NoError(t, c.SetSize(40))

	p, err := c.Preview()
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Label)
	assert.Equal(t, 40.0, p.Size)
	assert.Equal(t, "A", vs[0].Label, "store label changed before save")
	assert.Equal(t, 0.0, vs[0].Size)

	commit, err := c.Save()
	require.NoError(t, err)
	assert.False(t, commit.Deleted)
	assert.Same(t, vs[0], commit.Vertex)
	assert.Equal(t, "Alpha", vs[0].Label)
	assert.Equal(t, 40.0, vs[0].Size)
	assert.Equal(t, None, c.Mode())
}

func TestEdit_LabelCollisionKeepsModeActive(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[0].ID))
	require.NoError(t, c.SetLabel("B"))

	_, err := c.Save()
	require.ErrorIs(t, err, graph.ErrDuplicateLabel)
	assert.Equal(t, "A", vs[0].Label)
	assert.Equal(t, Edit, c.Mode())

	p, _ := c.Preview()
	assert.Equal(t, "B", p.Label, "pending edit was discarded")

	// Fixing the label lets the save go through.
	require.NoError(t, c.SetLabel("E"))
	_, err = c.Save()
	require.NoError(t, err)
	assert.Equal(t, "E", vs[0].Label)
}

func TestEdit_EmptyLabelRejected(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[1].ID))
	require.NoError(t, c.SetLabel(""))
	_, err := c.Save()
	require.ErrorIs(t, err, graph.ErrEmptyLabel)
	assert.Equal(t, Edit, c.Mode())
}

func TestEdit_CancelRestores(t *testing.T) {
	s, vs := square(t)
	before, beforeEdges := flatten(s)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[2].ID))
	require.NoError(t, c.SetLabel("Z"))
	require.NoError(t, c.SetApplyToAll(true))
	require.NoError(t, c.SetSize(33))
	assert.Equal(t, 33.0, vs[0].Size, "apply-to-all should mirror immediately")

	c.CancelEdit()
	after, afterEdges := flatten(s)
	assert.Equal(t, before, after)
	assert.Equal(t, beforeEdges, afterEdges)
	assert.Equal(t, None, c.Mode())
}

func TestEdit_ApplyToAllToggleOffReverts(t *testing.T) {
	s, vs := square(t)
	require.NoError(t, s.SetVertexSize(vs[1].ID, 12))
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[0].ID))
	require.NoError(t, c.SetSize(30))
	require.NoError(t, c.SetApplyToAll(true))
	for _, v := range vs[1:] {
		assert.Equal(t, 30.0, v.Size, v.Label)
	}
	assert.Equal(t, 0.0, vs[0].Size, "edited vertex only changes on save")

	require.NoError(t, c.SetApplyToAll(false))
	assert.Equal(t, 12.0, vs[1].Size)
	assert.Equal(t, 0.0, vs[2].Size)
}

func TestEdit_ApplyToAllKeptOnSave(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[0].ID))
	require.NoError(t, c.SetApplyToAll(true))
	require.NoError(t, c.SetSize(25))
	_, err := c.Save()
	require.NoError(t, err)
	for _, v := range vs {
		assert.Equal(t, 25.0, v.Size, v.Label)
	}
}

func TestEdit_PendingDeleteCascades(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[0].ID))
	on, err := c.TogglePendingDelete()
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, Edit, c.Mode(), "toggling pending delete stays in edit mode")

	commit, err := c.Save()
	require.NoError(t, err)
	assert.True(t, commit.Deleted)
	assert.Nil(t, s.FindByID(vs[0].ID))
	for _, e := range s.Edges() {
		assert.False(t, e.Touches(vs[0].ID), "edge %s survived cascade", e)
	}
	assert.Len(t, s.Edges(), 2)
}

func TestEdit_PendingDeleteToggleBack(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[0].ID))
	c.TogglePendingDelete()
	off, _ := c.TogglePendingDelete()
	assert.False(t, off)
	_, err := c.Save()
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
}

func TestEdit_EnterAnotherCancelsPrevious(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterEdit(vs[0].ID))
	require.NoError(t, c.SetLabel("X"))
	require.NoError(t, c.EnterEdit(vs[1].ID))

	assert.Same(t, vs[1], c.Editing())
	assert.Equal(t, "A", vs[0].Label)
	p, _ := c.Preview()
	assert.Equal(t, "B", p.Label)
}

func TestEdit_Errors(t *testing.T) {
	s, _ := square(t)
	c := New(s)
	_, err := c.Save()
	assert.ErrorIs(t, err, ErrNoEdit)
	assert.ErrorIs(t, c.SetLabel("x"), ErrNoEdit)
	_, err = c.Preview()
	assert.ErrorIs(t, err, ErrNoEdit)
	assert.ErrorIs(t, c.EnterEdit(999), graph.ErrVertexNotFound)
}

func TestModesAreExclusive(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterDelete())
	assert.ErrorIs(t, c.EnterEdit(vs[0].ID), ErrDeleteModeActive)
	c.CancelDelete()

	require.NoError(t, c.EnterEdit(vs[0].ID))
	assert.ErrorIs(t, c.EnterDelete(), ErrEditModeActive)
	assert.Equal(t, Edit, c.Mode())
}

func TestDelete_CancelRestoresVerbatim(t *testing.T) {
	s, vs := square(t)
	before, beforeEdges := flatten(s)
	c := New(s)
	require.NoError(t, c.EnterDelete())

	_, err := c.ToggleMark(vs[0].ID)
	require.NoError(t, err)
	_, err = c.ToggleMark(vs[3].ID)
	require.NoError(t, err)
	assert.Equal(t, []int{vs[0].ID, vs[3].ID}, c.Marked())

	c.CancelDelete()
	after, afterEdges := flatten(s)
	assert.Equal(t, before, after)
	assert.Equal(t, beforeEdges, afterEdges)
	assert.Equal(t, None, c.Mode())
	assert.Empty(t, c.Marked())
	assert.Same(t, vs[0], s.Vertices()[0])
}

func TestDelete_ToggleIsNotIdempotentAdd(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterDelete())
	on, _ := c.ToggleMark(vs[1].ID)
	off, _ := c.ToggleMark(vs[1].ID)
	assert.True(t, on)
	assert.False(t, off)
	assert.False(t, c.IsMarked(vs[1].ID))
	assert.Empty(t, c.Marked())
}

func TestDelete_Commit(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterDelete())
	c.ToggleMark(vs[0].ID)
	c.ToggleMark(vs[1].ID)

	ids, err := c.CommitDelete()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{vs[0].ID, vs[1].ID}, ids)
	assert.Equal(t, []string{"C", "D"}, model.Labels(s.Vertices()))
	require.Len(t, s.Edges(), 1)
	assert.True(t, s.HasEdge(vs[2], vs[3]))
	assert.Equal(t, None, c.Mode())
}

func TestDelete_Errors(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	_, err := c.ToggleMark(vs[0].ID)
	assert.ErrorIs(t, err, ErrNoDelete)
	_, err = c.CommitDelete()
	assert.ErrorIs(t, err, ErrNoDelete)

	require.NoError(t, c.EnterDelete())
	_, err = c.ToggleMark(12345)
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestReset(t *testing.T) {
	s, vs := square(t)
	c := New(s)
	require.NoError(t, c.EnterDelete())
	c.ToggleMark(vs[0].ID)
	c.Reset()
	assert.Equal(t, None, c.Mode())
	assert.False(t, c.IsMarked(vs[0].ID))
}
