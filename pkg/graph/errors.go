package graph

import "errors"

// Sentinel errors for graph store operations. Callers match them with
// errors.Is; the store wraps them with the offending label or id.
var (
	// ErrDuplicateLabel indicates a create or rename collided with another
	// vertex's label. Nothing was mutated.
	ErrDuplicateLabel = errors.New("graph: duplicate vertex label")

	// ErrEmptyLabel indicates a rename to the empty string.
	ErrEmptyLabel = errors.New("graph: vertex label is empty")

	// ErrEdgeAlreadyExists indicates an edge already joins the unordered pair.
	ErrEdgeAlreadyExists = errors.New("graph: edge already exists")

	// ErrVertexNotFound indicates an operation referenced an id or vertex
	// that is not in the store.
	ErrVertexNotFound = errors.New("graph: vertex not found")

	// ErrNilVertex indicates a nil endpoint was passed to AddEdge.
	ErrNilVertex = errors.New("graph: vertex is nil")

	// ErrNotFinite indicates a weight or size was NaN or infinite.
	ErrNotFinite = errors.New("graph: number is not finite")
)
