// Package testutil provides deterministic graph fixtures for tests.
// Fixtures are abstract (labels plus index pairs) and are turned into a
// graph.Store with ToStore, which lays the vertices out on a circle so
// hit-testing has distinct positions to work with.
package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// GraphFixture is an abstract undirected graph.
type GraphFixture struct {
	Description string     `json:"description"`
	Nodes       []string   `json:"nodes"`
	Edges       [][2]int   `json:"edges"`
	Properties  Properties `json:"properties,omitempty"`
}

// Properties holds what the generator knows about the fixture.
type Properties struct {
	HasCycles   bool `json:"has_cycles,omitempty"`
	IsConnected bool `json:"is_connected,omitempty"`
	// Diameter in hops, when known; -1 otherwise.
	Diameter int `json:"diameter"`
}

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed   int64   // 0 picks 42
	Radius float64 // layout circle radius for ToStore
	// Direction applied to every edge ToStore creates.
	Direction model.Direction
}

// DefaultConfig returns a seeded config with undirected edges.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, Radius: 200, Direction: model.Undirected}
}

// Generator creates fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 200
	}
	if !cfg.Direction.IsValid() {
		cfg.Direction = model.Undirected
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

// Path creates n0 - n1 - ... - n{size-1}.
func (g *Generator) Path(size int) GraphFixture {
	var edges [][2]int
	for i := 1; i < size; i++ {
		edges = append(edges, [2]int{i - 1, i})
	}
	return GraphFixture{
		Description: fmt.Sprintf("path of %d vertices", size),
		Nodes:       names("n", size),
		Edges:       edges,
		Properties:  Properties{IsConnected: size > 0, Diameter: max(size-1, 0)},
	}
}

// Star creates hub n0 with spokes n1..n{spokes}.
func (g *Generator) Star(spokes int) GraphFixture {
	var edges [][2]int
	for i := 1; i <= spokes; i++ {
		edges = append(edges, [2]int{0, i})
	}
	diam := min(spokes, 2)
	return GraphFixture{
		Description: fmt.Sprintf("star with %d spokes", spokes),
		Nodes:       names("n", spokes+1),
		Edges:       edges,
		Properties:  Properties{IsConnected: true, Diameter: diam},
	}
}

// Cycle creates a ring of size vertices. Sizes below 3 degrade to a path.
func (g *Generator) Cycle(size int) GraphFixture {
	if size < 3 {
		return g.Path(size)
	}
	f := g.Path(size)
	f.Edges = append(f.Edges, [2]int{size - 1, 0})
	f.Description = fmt.Sprintf("cycle of %d vertices", size)
	f.Properties = Properties{HasCycles: true, IsConnected: true, Diameter: size / 2}
	return f
}

// Tree creates a complete tree breadth-first: every internal vertex has
// breadth children, depth levels below the root.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	depth, breadth = max(depth, 1), max(breadth, 1)
	nodes := []string{"n0"}
	var edges [][2]int
	level := []int{0}
	for d := 0; d < depth; d++ {
		var next []int
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				child := len(nodes)
				nodes = append(nodes, fmt.Sprintf("n%d", child))
				edges = append(edges, [2]int{parent, child})
				next = append(next, child)
			}
		}
		level = next
	}
	diam := depth
	if breadth > 1 {
		diam = 2 * depth
	}
	return GraphFixture{
		Description: fmt.Sprintf("tree depth=%d breadth=%d (%d vertices)", depth, breadth, len(nodes)),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{IsConnected: true, Diameter: diam},
	}
}

// Disconnected creates components paths of componentSize vertices each.
func (g *Generator) Disconnected(components, componentSize int) GraphFixture {
	var nodes []string
	var edges [][2]int
	for c := 0; c < components; c++ {
		for i := 0; i < componentSize; i++ {
			nodes = append(nodes, fmt.Sprintf("c%d_%d", c, i))
			if i > 0 {
				edges = append(edges, [2]int{len(nodes) - 2, len(nodes) - 1})
			}
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("%d components of %d vertices", components, componentSize),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{IsConnected: components <= 1, Diameter: -1},
	}
}

// Complete creates K_size.
func (g *Generator) Complete(size int) GraphFixture {
	var edges [][2]int
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			edges = append(edges, [2]int{i, j})
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("complete graph on %d vertices", size),
		Nodes:       names("n", size),
		Edges:       edges,
		Properties:  Properties{HasCycles: size > 2, IsConnected: size > 0, Diameter: min(max(size-1, 0), 1)},
	}
}

// Ladder creates two parallel paths A and B joined by a rung at every step.
func (g *Generator) Ladder(length int) GraphFixture {
	length = max(length, 1)
	nodes := make([]string, 2*length)
	var edges [][2]int
	for i := 0; i < length; i++ {
		nodes[i] = fmt.Sprintf("A%d", i)
		nodes[length+i] = fmt.Sprintf("B%d", i)
		if i > 0 {
			edges = append(edges, [2]int{i - 1, i}, [2]int{length + i - 1, length + i})
		}
		edges = append(edges, [2]int{i, length + i})
	}
	return GraphFixture{
		Description: fmt.Sprintf("ladder with %d rungs", length),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{HasCycles: length > 1, IsConnected: true, Diameter: length},
	}
}

// Random joins each pair with probability density.
func (g *Generator) Random(size int, density float64) GraphFixture {
	density = math.Max(0, math.Min(1, density))
	var edges [][2]int
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("random graph n=%d p=%.2f (%d edges)", size, density, len(edges)),
		Nodes:       names("n", size),
		Edges:       edges,
		Properties:  Properties{Diameter: -1},
	}
}

// ToStore materialises f. Vertices sit on a circle in fixture order.
func (g *Generator) ToStore(f GraphFixture) (*graph.Store, error) {
	s := graph.New()
	verts := make([]*model.Vertex, len(f.Nodes))
	for i, name := range f.Nodes {
		angle := 2 * math.Pi * float64(i) / float64(max(len(f.Nodes), 1))
		x := g.cfg.Radius + g.cfg.Radius*math.Cos(angle)
		y := g.cfg.Radius + g.cfg.Radius*math.Sin(angle)
		v, err := s.AddVertex(math.Round(x), math.Round(y), name)
		if err != nil {
			return nil, err
		}
		verts[i] = v
	}
	for _, e := range f.Edges {
		if e[0] < 0 || e[0] >= len(verts) || e[1] < 0 || e[1] >= len(verts) {
			return nil, fmt.Errorf("edge %v out of range", e)
		}
		if _, err := s.AddEdge(verts[e[0]], verts[e[1]], nil, model.EdgeStraight, g.cfg.Direction); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Build creates a store from a compact description. Tokens are separated
// by spaces: "A-B" adds an edge (creating both vertices as needed) and a
// bare "C" adds an isolated vertex. Vertices are created in first-mention
// order, ten units apart on the x axis.
func Build(desc string) (*graph.Store, error) {
	s := graph.New()
	get := func(label string) (*model.Vertex, error) {
		if v := s.FindByLabel(label); v != nil {
			return v, nil
		}
		return s.AddVertex(float64(10*s.Len()), 0, label)
	}
	for _, tok := range strings.Fields(desc) {
		parts := strings.Split(tok, "-")
		switch len(parts) {
		case 1:
			if _, err := get(parts[0]); err != nil {
				return nil, err
			}
		case 2:
			a, err := get(parts[0])
			if err != nil {
				return nil, err
			}
			b, err := get(parts[1])
			if err != nil {
				return nil, err
			}
			if _, err := s.AddDefaultEdge(a, b); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("bad token %q", tok)
		}
	}
	return s, nil
}

// Quick helpers panic on error; fixtures are known good.

func must(s *graph.Store, err error) *graph.Store {
	if err != nil {
		panic(err)
	}
	return s
}

// MustBuild is Build for literal descriptions.
func MustBuild(desc string) *graph.Store { return must(Build(desc)) }

// QuickPath returns a path store of size vertices.
func QuickPath(size int) *graph.Store {
	g := NewDefault()
	return must(g.ToStore(g.Path(size)))
}

// QuickCycle returns a cycle store.
func QuickCycle(size int) *graph.Store {
	g := NewDefault()
	return must(g.ToStore(g.Cycle(size)))
}

// QuickTree returns a tree store.
func QuickTree(depth, breadth int) *graph.Store {
	g := NewDefault()
	return must(g.ToStore(g.Tree(depth, breadth)))
}

// QuickRandom returns a seeded random store.
func QuickRandom(size int, density float64) *graph.Store {
	g := NewDefault()
	return must(g.ToStore(g.Random(size, density)))
}
