package graph

import "github.com/vanderheijden86/graphsketch/pkg/model"

// Snapshot is a structural copy of a store, independent of later mutation.
// Restoring it puts back the vertex and edge sequences verbatim.
type Snapshot struct {
	vertices []model.Vertex
	edges    []edgeRecord
	nextID   int
	settings model.Settings
}

type edgeRecord struct {
	from, to  int
	weight    *float64
	typ       model.EdgeType
	direction model.Direction
	style     model.EdgeStyle
}

// Len returns the number of vertices captured.
func (sn Snapshot) Len() int { return len(sn.vertices) }

// EdgeCount returns the number of edges captured.
func (sn Snapshot) EdgeCount() int { return len(sn.edges) }

// Snapshot captures the current contents.
func (s *Store) Snapshot() Snapshot {
	sn := Snapshot{
		vertices: make([]model.Vertex, len(s.vertices)),
		edges:    make([]edgeRecord, len(s.edges)),
		nextID:   s.nextID,
		settings: s.settings,
	}
	for i, v := range s.vertices {
		sn.vertices[i] = *v
	}
	for i, e := range s.edges {
		sn.edges[i] = edgeRecord{
			from:      e.From.ID,
			to:        e.To.ID,
			weight:    copyWeight(e.Weight),
			typ:       e.Type,
			direction: e.Direction,
			style:     e.Style,
		}
	}
	return sn
}

// RestoreSnapshot puts the captured contents back. Vertices that still exist
// keep their pointer identity, so references held by selection state stay
// valid; vertices deleted since the snapshot are recreated.
func (s *Store) RestoreSnapshot(sn Snapshot) {
	live := make(map[int]*model.Vertex, len(s.vertices))
	for _, v := range s.vertices {
		live[v.ID] = v
	}
	vertices := make([]*model.Vertex, len(sn.vertices))
	byID := make(map[int]*model.Vertex, len(sn.vertices))
	for i := range sn.vertices {
		v, ok := live[sn.vertices[i].ID]
		if !ok {
			v = new(model.Vertex)
		}
		*v = sn.vertices[i]
		vertices[i] = v
		byID[v.ID] = v
	}
	edges := make([]*model.Edge, 0, len(sn.edges))
	for _, r := range sn.edges {
		from, to := byID[r.from], byID[r.to]
		if from == nil || to == nil {
			continue
		}
		edges = append(edges, &model.Edge{
			From:      from,
			To:        to,
			Weight:    copyWeight(r.weight),
			Type:      r.typ,
			Direction: r.direction,
			Style:     r.style,
		})
	}
	s.vertices = vertices
	s.edges = edges
	s.nextID = sn.nextID
	s.settings = sn.settings
	s.touch()
}

// Clone returns an independent deep copy of the store.
func (s *Store) Clone() *Store {
	c := New(WithSettings(s.settings))
	c.RestoreSnapshot(s.Snapshot())
	return c
}

func copyWeight(w *float64) *float64 {
	if w == nil {
		return nil
	}
	v := *w
	return &v
}
