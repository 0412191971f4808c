package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// GraphDiff lists differences between two graphs. Vertices are matched by
// label and edges by their unordered label pair.
type GraphDiff struct {
	SourceA string
	SourceB string
	// MissingInA holds labels present in B but not in A.
	MissingInA []string
	MissingInB []string
	// Edge pairs are written "A-B".
	EdgesMissingInA []string
	EdgesMissingInB []string
	// Moved holds labels whose coordinates differ.
	Moved []string
	// EdgeMismatch holds edges present in both with different attributes.
	EdgeMismatch []EdgeDifference
	CountA       int
	CountB       int
}

// EdgeDifference is one differing edge attribute.
type EdgeDifference struct {
	Pair  string `json:"pair"`
	Field string `json:"field"`
	A     string `json:"a"`
	B     string `json:"b"`
}

// HasInconsistencies reports whether the graphs differ at all.
func (d GraphDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 ||
		len(d.EdgesMissingInA) > 0 || len(d.EdgesMissingInB) > 0 ||
		len(d.Moved) > 0 || len(d.EdgeMismatch) > 0
}

// Short describes the change from A to B in one line, e.g. for a reload
// status message.
func (d GraphDiff) Short() string {
	if !d.HasInconsistencies() {
		return "no changes"
	}
	var parts []string
	add := func(n int, sign, noun string) {
		if n == 0 {
			return
		}
		if n != 1 {
			noun += "s"
		}
		parts = append(parts, fmt.Sprintf("%s%d %s", sign, n, noun))
	}
	add(len(d.MissingInA), "+", "vertex")
	add(len(d.MissingInB), "-", "vertex")
	add(len(d.EdgesMissingInA), "+", "edge")
	add(len(d.EdgesMissingInB), "-", "edge")
	add(len(d.Moved), "~", "moved")
	add(len(d.EdgeMismatch), "~", "edge attribute")
	return strings.Join(parts, ", ")
}

// Summary returns a multi-line description of the differences.
func (d GraphDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d vertices each)", d.CountA)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Differences between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&b, "  - vertex count: %d vs %d\n", d.CountA, d.CountB)
	}
	list := func(items []string, format string, args ...any) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "  - "+format+"\n", append([]any{len(items)}, args...)...)
		if len(items) <= 5 {
			for _, it := range items {
				fmt.Fprintf(&b, "    - %s\n", it)
			}
		}
	}
	list(d.MissingInA, "%d vertices only in %s", d.SourceB)
	list(d.MissingInB, "%d vertices only in %s", d.SourceA)
	list(d.EdgesMissingInA, "%d edges only in %s", d.SourceB)
	list(d.EdgesMissingInB, "%d edges only in %s", d.SourceA)
	list(d.Moved, "%d vertices moved")
	if len(d.EdgeMismatch) > 0 {
		fmt.Fprintf(&b, "  - %d edge attributes differ\n", len(d.EdgeMismatch))
		if len(d.EdgeMismatch) <= 5 {
			for _, m := range d.EdgeMismatch {
				fmt.Fprintf(&b, "    - %s %s: %s vs %s\n", m.Pair, m.Field, m.A, m.B)
			}
		}
	}
	return b.String()
}

// DiffOptions configures the comparison.
type DiffOptions struct {
	ComparePositions bool
	CompareEdgeAttrs bool
	// MaxDifferences caps each list (0 = unlimited).
	MaxDifferences int
}

// DefaultDiffOptions compares everything, keeping at most 100 entries per
// list.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{ComparePositions: true, CompareEdgeAttrs: true, MaxDifferences: 100}
}

func pairKey(e *model.Edge) string {
	a, b := e.From.Label, e.To.Label
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

func weightString(w *float64) string {
	if w == nil {
		return "none"
	}
	return fmt.Sprintf("%g", *w)
}

// DetectInconsistencies compares a against b.
func DetectInconsistencies(a, b *graph.Store, nameA, nameB string, opts DiffOptions) GraphDiff {
	d := GraphDiff{SourceA: nameA, SourceB: nameB, CountA: a.Len(), CountB: b.Len()}
	push := func(list *[]string, item string) {
		if opts.MaxDifferences == 0 || len(*list) < opts.MaxDifferences {
			*list = append(*list, item)
		}
	}

	for _, v := range a.Vertices() {
		other := b.FindByLabel(v.Label)
		switch {
		case other == nil:
			push(&d.MissingInB, v.Label)
		case opts.ComparePositions && (other.X != v.X || other.Y != v.Y):
			push(&d.Moved, v.Label)
		}
	}
	for _, v := range b.Vertices() {
		if a.FindByLabel(v.Label) == nil {
			push(&d.MissingInA, v.Label)
		}
	}

	edgesB := make(map[string]*model.Edge, len(b.Edges()))
	for _, e := range b.Edges() {
		edgesB[pairKey(e)] = e
	}
	seen := make(map[string]bool, len(a.Edges()))
	for _, e := range a.Edges() {
		key := pairKey(e)
		seen[key] = true
		other, ok := edgesB[key]
		if !ok {
			push(&d.EdgesMissingInB, key)
			continue
		}
		if !opts.CompareEdgeAttrs {
			continue
		}
		mismatch := func(field, x, y string) {
			if x != y && (opts.MaxDifferences == 0 || len(d.EdgeMismatch) < opts.MaxDifferences) {
				d.EdgeMismatch = append(d.EdgeMismatch, EdgeDifference{Pair: key, Field: field, A: x, B: y})
			}
		}
		mismatch("weight", weightString(e.Weight), weightString(other.Weight))
		mismatch("type", string(e.Type), string(other.Type))
		mismatch("direction", string(e.Direction), string(other.Direction))
	}
	for _, e := range b.Edges() {
		if key := pairKey(e); !seen[key] {
			push(&d.EdgesMissingInA, key)
		}
	}
	return d
}

// CompareSources loads and compares two sources.
func CompareSources(ctx context.Context, a, b DataSource, opts DiffOptions) (*GraphDiff, error) {
	ga, err := LoadFromSource(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", a.Locator(), err)
	}
	gb, err := LoadFromSource(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", b.Locator(), err)
	}
	d := DetectInconsistencies(ga, gb, a.Locator(), b.Locator(), opts)
	return &d, nil
}

// InconsistencyReport collects the pairwise differences between sources
// that share a name: a file graph.json and a library slot "graph" are
// expected to hold the same graph when the slot mirrors the file.
type InconsistencyReport struct {
	Sources              []DataSource
	Diffs                []GraphDiff
	TotalInconsistencies int
}

// baseName is the name a source is paired by.
func baseName(s DataSource) string {
	if s.Type == SourceTypeLibrary {
		return s.Name
	}
	name := s.Path[strings.LastIndexAny(s.Path, `/\`)+1:]
	return strings.TrimSuffix(name, ".json")
}

// GenerateInconsistencyReport compares every pair of valid sources with the
// same base name.
func GenerateInconsistencyReport(ctx context.Context, sources []DataSource, opts DiffOptions) (*InconsistencyReport, error) {
	report := &InconsistencyReport{Sources: sources}
	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid || baseName(sources[i]) != baseName(sources[j]) {
				continue
			}
			d, err := CompareSources(ctx, sources[i], sources[j], opts)
			if err != nil {
				continue
			}
			if d.HasInconsistencies() {
				report.Diffs = append(report.Diffs, *d)
				report.TotalInconsistencies += len(d.MissingInA) + len(d.MissingInB) +
					len(d.EdgesMissingInA) + len(d.EdgesMissingInB) + len(d.Moved) + len(d.EdgeMismatch)
			}
		}
	}
	return report, nil
}
