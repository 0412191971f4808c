// Package persist converts graphs to and from plain documents and stores
// those documents: atomic JSON files, a SQLite library of named graphs,
// a change-detecting autosaver and a fan-out saver for several targets.
//
// Deserialization is all-or-nothing. A document that is missing required
// fields, repeats an id or label, or references an endpoint that does not
// exist is rejected with ErrMalformedImport and no store is produced.
package persist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// FormatVersion is the document version written by Serialize.
const FormatVersion = 1

var (
	// ErrPersistence wraps failures of the storage backends. The in-memory
	// graph is never affected by them.
	ErrPersistence = errors.New("persist: storage failure")

	// ErrMalformedImport indicates a document that cannot be turned into a
	// consistent graph.
	ErrMalformedImport = errors.New("persist: malformed graph document")
)

// Document is the plain data form of a graph.
type Document struct {
	Version  int            `json:"version" validate:"gte=0"`
	NextID   int            `json:"nextId" validate:"gte=0"`
	Settings model.Settings `json:"settings"`
	Vertices []VertexRecord `json:"vertices" validate:"unique=ID,unique=Label,dive"`
	Edges    []EdgeRecord   `json:"edges" validate:"dive"`
}

// VertexRecord is a vertex with its position made explicit so a missing
// coordinate can be told apart from zero.
type VertexRecord struct {
	ID    int               `json:"id" validate:"gt=0"`
	X     *float64          `json:"x" validate:"required"`
	Y     *float64          `json:"y" validate:"required"`
	Label string            `json:"label" validate:"required"`
	Size  float64           `json:"size,omitempty" validate:"gte=0"`
	Style model.VertexStyle `json:"style"`
}

// EdgeRecord is an edge flattened to endpoint ids.
type EdgeRecord struct {
	From      *int            `json:"from" validate:"required"`
	To        *int            `json:"to" validate:"required"`
	Weight    *float64        `json:"weight"`
	Type      model.EdgeType  `json:"type" validate:"omitempty,oneof=straight curved"`
	Direction model.Direction `json:"direction" validate:"omitempty,oneof=undirected directed-forward directed-backward"`
	Style     model.EdgeStyle `json:"style"`
}

var validate = validator.New()

// Serialize flattens s into a document. It never fails.
func Serialize(s *graph.Store) Document {
	defer metrics.Timer(metrics.Serialize)()

	doc := Document{
		Version:  FormatVersion,
		NextID:   s.NextID(),
		Settings: s.Settings(),
		Vertices: make([]VertexRecord, 0, s.Len()),
		Edges:    make([]EdgeRecord, 0, len(s.Edges())),
	}
	for _, v := range s.Vertices() {
		x, y := v.X, v.Y
		doc.Vertices = append(doc.Vertices, VertexRecord{
			ID: v.ID, X: &x, Y: &y, Label: v.Label, Size: v.Size, Style: v.Style,
		})
	}
	for _, e := range s.Edges() {
		from, to := e.From.ID, e.To.ID
		rec := EdgeRecord{From: &from, To: &to, Type: e.Type, Direction: e.Direction, Style: e.Style}
		if e.Weight != nil {
			w := *e.Weight
			rec.Weight = &w
		}
		doc.Edges = append(doc.Edges, rec)
	}
	return doc
}

// Deserialize builds a new store from doc, resolving edge endpoint ids to
// vertex pointers.
func Deserialize(doc Document) (*graph.Store, error) {
	defer metrics.Timer(metrics.Deserialize)()

	if err := validate.Struct(doc); err != nil {
		return nil, malformed(describeValidation(err))
	}
	if doc.Version > FormatVersion {
		return nil, malformed(fmt.Sprintf("unsupported version %d", doc.Version))
	}

	settings := doc.Settings
	def := model.DefaultSettings()
	if settings.EdgeType == "" {
		settings.EdgeType = def.EdgeType
	}
	if settings.Direction == "" {
		settings.Direction = def.Direction
	}
	if settings.VertexSize == 0 {
		settings.VertexSize = def.VertexSize
	}
	if err := settings.Validate(); err != nil {
		return nil, malformed(err.Error())
	}

	byID := make(map[int]*model.Vertex, len(doc.Vertices))
	vertices := make([]*model.Vertex, 0, len(doc.Vertices))
	for _, r := range doc.Vertices {
		v := &model.Vertex{ID: r.ID, X: *r.X, Y: *r.Y, Label: r.Label, Size: r.Size, Style: r.Style}
		byID[v.ID] = v
		vertices = append(vertices, v)
	}

	type pair struct{ a, b int }
	seen := make(map[pair]bool, len(doc.Edges))
	edges := make([]*model.Edge, 0, len(doc.Edges))
	for i, r := range doc.Edges {
		from, ok := byID[*r.From]
		if !ok {
			return nil, malformed(fmt.Sprintf("edge %d: unknown endpoint id %d", i, *r.From))
		}
		to, ok := byID[*r.To]
		if !ok {
			return nil, malformed(fmt.Sprintf("edge %d: unknown endpoint id %d", i, *r.To))
		}
		key := pair{min(from.ID, to.ID), max(from.ID, to.ID)}
		if seen[key] {
			return nil, malformed(fmt.Sprintf("edge %d: duplicate edge %s-%s", i, from.Label, to.Label))
		}
		seen[key] = true

		e := &model.Edge{From: from, To: to, Type: r.Type, Direction: r.Direction, Style: r.Style}
		if e.Type == "" {
			e.Type = model.EdgeStraight
		}
		if e.Direction == "" {
			e.Direction = model.Undirected
		}
		if r.Weight != nil {
			w := *r.Weight
			e.Weight = &w
		}
		edges = append(edges, e)
	}

	s := graph.New(graph.WithSettings(settings))
	s.Restore(vertices, edges, doc.NextID)
	return s, nil
}

func malformed(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformedImport, detail)
}

// describeValidation turns validator errors into one readable line.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Document.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s fails %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// Marshal encodes s as indented JSON.
func Marshal(s *graph.Store) ([]byte, error) {
	data, err := json.MarshalIndent(Serialize(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	return data, nil
}

// Unmarshal decodes JSON and deserializes it.
func Unmarshal(data []byte) (*graph.Store, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed(err.Error())
	}
	return Deserialize(doc)
}
