package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// AssertLabels checks vs has exactly the labels want, in order.
func AssertLabels(t testing.TB, vs []*model.Vertex, want ...string) {
	t.Helper()
	got := model.Labels(vs)
	if strings.Join(got, ",") != strings.Join(want, ",") || len(got) != len(want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

// AssertCounts checks the vertex and edge counts of s.
func AssertCounts(t testing.TB, s *graph.Store, vertices, edges int) {
	t.Helper()
	if s.Len() != vertices || len(s.Edges()) != edges {
		t.Errorf("store has %d vertices, %d edges; want %d, %d", s.Len(), len(s.Edges()), vertices, edges)
	}
}

// AssertConsistent checks the store invariants: unique ids and labels,
// ids below NextID, edge endpoints present, at most one edge per pair.
func AssertConsistent(t testing.TB, s *graph.Store) {
	t.Helper()
	for _, msg := range Inconsistencies(s) {
		t.Error(msg)
	}
}

// Inconsistencies lists every broken store invariant.
func Inconsistencies(s *graph.Store) []string {
	var out []string
	ids := make(map[int]*model.Vertex)
	labels := make(map[string]bool)
	for _, v := range s.Vertices() {
		if ids[v.ID] != nil {
			out = append(out, fmt.Sprintf("duplicate id %d", v.ID))
		}
		if labels[v.Label] {
			out = append(out, fmt.Sprintf("duplicate label %q", v.Label))
		}
		if v.ID >= s.NextID() {
			out = append(out, fmt.Sprintf("id %d not below next id %d", v.ID, s.NextID()))
		}
		ids[v.ID] = v
		labels[v.Label] = true
	}
	pairs := make(map[[2]int]bool)
	for _, e := range s.Edges() {
		if ids[e.From.ID] != e.From || ids[e.To.ID] != e.To {
			out = append(out, fmt.Sprintf("edge %s has a dangling endpoint", e))
			continue
		}
		key := [2]int{min(e.From.ID, e.To.ID), max(e.From.ID, e.To.ID)}
		if pairs[key] {
			out = append(out, fmt.Sprintf("duplicate edge %s", e))
		}
		pairs[key] = true
	}
	return out
}

// AssertJSONEqual compares two values by their JSON encoding.
func AssertJSONEqual(t testing.TB, expected, actual any) {
	t.Helper()
	want, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("marshal expected: %v", err)
	}
	got, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("marshal actual: %v", err)
	}
	if string(want) != string(got) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", want, got)
	}
}

// GoldenFile compares output against a file under testdata. Set
// GENERATE_GOLDEN to rewrite it.
type GoldenFile struct {
	t      testing.TB
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
func NewGoldenFile(t testing.TB, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{t: t, dir: dir, name: name, update: os.Getenv("GENERATE_GOLDEN") != ""}
}

// Path returns the golden file path.
func (g *GoldenFile) Path() string { return filepath.Join(g.dir, g.name) }

// Assert compares actual with the golden content line by line.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}
	expected, err := os.ReadFile(path)
	if err != nil {
		g.t.Fatalf("read golden file %s: %v (run with GENERATE_GOLDEN=1 to create it)", path, err)
	}
	if string(expected) == actual {
		return
	}
	want, got := strings.Split(string(expected), "\n"), strings.Split(actual, "\n")
	for i := 0; i < len(want) || i < len(got); i++ {
		var w, a string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			a = got[i]
		}
		if w != a {
			g.t.Errorf("golden mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, w, a)
			return
		}
	}
}

// WriteFile writes data to name under a fresh temp dir and returns the
// path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
