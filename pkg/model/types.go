// Package model defines the value types shared by the graph store, the
// traversal engine, persistence and the terminal UI.
package model

import (
	"fmt"
	"math"
	"strings"
)

// EdgeType controls how an edge is drawn between its endpoints.
type EdgeType string

const (
	EdgeStraight EdgeType = "straight"
	EdgeCurved   EdgeType = "curved"
)

// IsValid reports whether t is a known edge type.
func (t EdgeType) IsValid() bool {
	switch t {
	case EdgeStraight, EdgeCurved:
		return true
	}
	return false
}

// Next returns the following edge type, wrapping around.
func (t EdgeType) Next() EdgeType {
	if t == EdgeStraight {
		return EdgeCurved
	}
	return EdgeStraight
}

// Direction is the arrowhead attribute of an edge. It is presentational;
// existence checks and traversal treat every edge as an unordered pair.
type Direction string

const (
	Undirected       Direction = "undirected"
	DirectedForward  Direction = "directed-forward"
	DirectedBackward Direction = "directed-backward"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	switch d {
	case Undirected, DirectedForward, DirectedBackward:
		return true
	}
	return false
}

// Next cycles undirected -> forward -> backward -> undirected.
func (d Direction) Next() Direction {
	switch d {
	case Undirected:
		return DirectedForward
	case DirectedForward:
		return DirectedBackward
	default:
		return Undirected
	}
}

// Arrow returns a compact glyph for status lines.
func (d Direction) Arrow() string {
	switch d {
	case DirectedForward:
		return "→"
	case DirectedBackward:
		return "←"
	default:
		return "—"
	}
}

// VertexStyle holds per-vertex styling overrides. Empty fields fall back to
// the renderer's theme.
type VertexStyle struct {
	Color       string  `json:"color,omitempty" yaml:"color,omitempty"`
	BorderColor string  `json:"borderColor,omitempty" yaml:"border_color,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty" yaml:"font_size,omitempty"`
	FontFamily  string  `json:"fontFamily,omitempty" yaml:"font_family,omitempty"`
	FontColor   string  `json:"fontColor,omitempty" yaml:"font_color,omitempty"`
}

// EdgeStyle holds per-edge styling overrides.
type EdgeStyle struct {
	Color     string  `json:"color,omitempty" yaml:"color,omitempty"`
	Width     float64 `json:"width,omitempty" yaml:"width,omitempty"`
	FontSize  float64 `json:"fontSize,omitempty" yaml:"font_size,omitempty"`
	FontColor string  `json:"fontColor,omitempty" yaml:"font_color,omitempty"`
}

// Vertex is a labeled point. ID and Label are both unique within a graph.
type Vertex struct {
	ID    int
	X, Y  float64
	Label string
	Size  float64 // 0 means the graph default size
	Style VertexStyle
}

// String returns the label, which is what users refer to vertices by.
func (v *Vertex) String() string {
	if v == nil {
		return "<nil>"
	}
	return v.Label
}

// EffectiveSize returns Size, or def when no override is set.
func (v *Vertex) EffectiveSize(def float64) float64 {
	if v.Size > 0 {
		return v.Size
	}
	return def
}

// Edge connects two vertices. Endpoints are live references during a session
// and are flattened to IDs only when serialized.
type Edge struct {
	From      *Vertex
	To        *Vertex
	Weight    *float64
	Type      EdgeType
	Direction Direction
	Style     EdgeStyle
}

// Connects reports whether the edge joins a and b in either orientation.
func (e *Edge) Connects(a, b *Vertex) bool {
	return (e.From == a && e.To == b) || (e.From == b && e.To == a)
}

// Touches reports whether id is one of the edge endpoints.
func (e *Edge) Touches(id int) bool {
	return e.From.ID == id || e.To.ID == id
}

// Other returns the endpoint opposite v, or nil if v is not an endpoint.
func (e *Edge) Other(v *Vertex) *Vertex {
	switch v {
	case e.From:
		return e.To
	case e.To:
		return e.From
	}
	return nil
}

// String renders the edge as "A—B" using the direction glyph.
func (e *Edge) String() string {
	var sb strings.Builder
	sb.WriteString(e.From.String())
	sb.WriteString(e.Direction.Arrow())
	sb.WriteString(e.To.String())
	if e.Weight != nil {
		fmt.Fprintf(&sb, " (%g)", *e.Weight)
	}
	return sb.String()
}

// Settings are the defaults applied to newly created vertices and edges.
type Settings struct {
	EdgeType   EdgeType  `json:"edgeType" yaml:"edge_type"`
	Direction  Direction `json:"direction" yaml:"direction"`
	VertexSize float64   `json:"vertexSize" yaml:"vertex_size"`
	Weight     *float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// DefaultVertexSize is the radius used when neither the vertex nor the graph
// settings specify one.
const DefaultVertexSize = 20

// DefaultSettings returns straight, undirected, unweighted edges and the
// default vertex size.
func DefaultSettings() Settings {
	return Settings{
		EdgeType:   EdgeStraight,
		Direction:  Undirected,
		VertexSize: DefaultVertexSize,
	}
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if !s.EdgeType.IsValid() {
		return fmt.Errorf("invalid edge type %q", s.EdgeType)
	}
	if !s.Direction.IsValid() {
		return fmt.Errorf("invalid direction %q", s.Direction)
	}
	if s.VertexSize < 0 || math.IsNaN(s.VertexSize) || math.IsInf(s.VertexSize, 0) {
		return fmt.Errorf("invalid vertex size %g", s.VertexSize)
	}
	if s.Weight != nil && (math.IsNaN(*s.Weight) || math.IsInf(*s.Weight, 0)) {
		return fmt.Errorf("invalid default weight %g", *s.Weight)
	}
	return nil
}

// Float returns a pointer to f. Handy for optional weights.
func Float(f float64) *float64 {
	return &f
}

// Labels returns the labels of vs in order.
func Labels(vs []*Vertex) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Label
	}
	return out
}
