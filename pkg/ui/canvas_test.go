package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// plainTheme renders without escape codes.
func plainTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}

var testCanvas = Canvas{Cols: 30, Rows: 5, CellWidth: 10, CellHeight: 20}

// cellCentre returns the graph point at the centre of (col, row).
func cellCentre(col, row int) (float64, float64) {
	p := testCanvas.ToGraph(col, row)
	return p.X, p.Y
}

func addAt(t *testing.T, s *graph.Store, col, row int, label string) *model.Vertex {
	t.Helper()
	x, y := cellCentre(col, row)
	v, err := s.AddVertex(x, y, label)
	if err != nil {
		t.Fatalf("AddVertex(%s): %v", label, err)
	}
	return v
}

func canvasLines(s *graph.Store) []string {
	sess := interaction.NewSession(s)
	return strings.Split(renderCanvas(sess, testCanvas, plainTheme()), "\n")
}

func TestCanvasCoordinates(t *testing.T) {
	p := testCanvas.ToGraph(0, 0)
	if p.X != 5 || p.Y != 10 {
		t.Errorf("ToGraph(0,0) = %+v", p)
	}
	if c, r := testCanvas.ToCell(19.9, 39.9); c != 1 || r != 1 {
		t.Errorf("ToCell = %d,%d", c, r)
	}
	if c, r := testCanvas.ToCell(-1, 5); c != -1 || r != 0 {
		t.Errorf("negative x should map left of the grid, got %d,%d", c, r)
	}
	for col := 0; col < 5; col++ {
		p := testCanvas.ToGraph(col, 3)
		if c, r := testCanvas.ToCell(p.X, p.Y); c != col || r != 3 {
			t.Errorf("round trip of (%d,3) gave (%d,%d)", col, c, r)
		}
	}
	if b := testCanvas.Bounds(); b.MaxX != 300 || b.MaxY != 100 {
		t.Errorf("Bounds = %+v", b)
	}
}

func TestRenderCanvas_HorizontalEdge(t *testing.T) {
	s := graph.New()
	a := addAt(t, s, 5, 2, "A")
	b := addAt(t, s, 15, 2, "B")
	if _, err := s.AddDefaultEdge(a, b); err != nil {
		t.Fatal(err)
	}

	lines := canvasLines(s)
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[2], "(A)───────(B)") {
		t.Errorf("row 2 = %q", lines[2])
	}
	for i, l := range lines {
		if w := runewidth.StringWidth(l); w != testCanvas.Cols {
			t.Errorf("row %d width = %d", i, w)
		}
	}
}

func TestRenderCanvas_WeightAndArrow(t *testing.T) {
	s := graph.New()
	a := addAt(t, s, 5, 2, "A")
	b := addAt(t, s, 15, 2, "B")
	if _, err := s.AddEdge(a, b, model.Float(3), model.EdgeStraight, model.Undirected); err != nil {
		t.Fatal(err)
	}
	if got := canvasLines(s)[2]; !strings.Contains(got, "(A)────3──(B)") {
		t.Errorf("weighted row = %q", got)
	}

	s.RemoveEdgeBetween(a, b)
	if _, err := s.AddEdge(a, b, nil, model.EdgeStraight, model.DirectedForward); err != nil {
		t.Fatal(err)
	}
	if got := canvasLines(s)[2]; !strings.Contains(got, "(A)─────▶─(B)") {
		t.Errorf("forward row = %q", got)
	}

	s.RemoveEdgeBetween(a, b)
	if _, err := s.AddEdge(a, b, nil, model.EdgeCurved, model.DirectedBackward); err != nil {
		t.Fatal(err)
	}
	if got := canvasLines(s)[2]; !strings.Contains(got, "(A)··◀····(B)") {
		t.Errorf("backward curved row = %q", got)
	}
}

func TestRenderCanvas_VerticalEdge(t *testing.T) {
	s := graph.New()
	a := addAt(t, s, 5, 0, "A")
	b := addAt(t, s, 5, 4, "B")
	if _, err := s.AddDefaultEdge(a, b); err != nil {
		t.Fatal(err)
	}
	lines := canvasLines(s)
	for row := 1; row <= 3; row++ {
		if r := []rune(lines[row])[5]; r != '│' {
			t.Errorf("row %d col 5 = %q", row, r)
		}
	}
}

func TestRenderCanvas_WideAndLongLabels(t *testing.T) {
	s := graph.New()
	addAt(t, s, 5, 1, "图")
	addAt(t, s, 15, 3, "averyveryverylonglabel")
	lines := canvasLines(s)
	for i, l := range lines {
		if w := runewidth.StringWidth(l); w != testCanvas.Cols {
			t.Errorf("row %d width = %d: %q", i, w, l)
		}
	}
	if !strings.Contains(lines[1], "(图)") {
		t.Errorf("wide label row = %q", lines[1])
	}
	if !strings.Contains(lines[3], "…)") {
		t.Errorf("long label should be truncated: %q", lines[3])
	}
}

func TestRenderCanvas_ClipsOutsideGrid(t *testing.T) {
	s := graph.New()
	if _, err := s.AddVertex(-50, -50, "off"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddVertex(10_000, 10, "far"); err != nil {
		t.Fatal(err)
	}
	for _, l := range canvasLines(s) {
		if strings.TrimSpace(l) != "" {
			t.Errorf("expected empty canvas, got %q", l)
		}
	}
}

func TestDrawCanvas_Roles(t *testing.T) {
	s := graph.New()
	a := addAt(t, s, 2, 2, "A")
	b := addAt(t, s, 12, 2, "B")
	c := addAt(t, s, 22, 2, "C")
	d := addAt(t, s, 12, 4, "D")
	for _, pair := range [][2]*model.Vertex{{a, b}, {b, c}, {b, d}} {
		if _, err := s.AddDefaultEdge(pair[0], pair[1]); err != nil {
			t.Fatal(err)
		}
	}

	sched := &sink{}
	sess := interaction.NewSession(s, interaction.WithScheduler(sched))
	click := func(v *model.Vertex) {
		sess.PointerDown(interaction.Point{X: v.X, Y: v.Y}, interaction.Primary)
		sess.PointerUp(interaction.Point{X: v.X, Y: v.Y})
	}
	click(c)
	sess.RunSearch(0)
	for i := 0; sess.Engine().Active() && i < 10; i++ {
		sess.StepElapsed(sched.lastStep)
	}
	if sess.Engine().Active() {
		t.Fatal("search did not finish")
	}

	g := drawCanvas(sess, testCanvas)
	roleOf := func(v *model.Vertex) cellRole {
		col, row := testCanvas.ToCell(v.X, v.Y)
		return g.at(col, row).role
	}
	if got := roleOf(c); got != roleTarget {
		t.Errorf("target role = %d", got)
	}
	if roleOf(a) != rolePath || roleOf(b) != rolePath {
		t.Errorf("path roles = %d, %d", roleOf(a), roleOf(b))
	}
	// BFS from A visits D only if it is dequeued before C
	if r := roleOf(d); r != roleVertex && r != roleVisited {
		t.Errorf("D role = %d", r)
	}
	if got := g.at(7, 2).role; got != rolePathEdge {
		t.Errorf("A-B edge role = %d", got)
	}
	if got := g.at(12, 3).role; got != roleEdge {
		t.Errorf("B-D edge role = %d", got)
	}

	// secondary selection wins over the path highlight
	sess.PointerDown(interaction.Point{X: b.X, Y: b.Y}, interaction.Secondary)
	g = drawCanvas(sess, testCanvas)
	if got := roleOf(b); got != roleBuffer {
		t.Errorf("buffered role = %d", got)
	}
}

func TestDrawCanvas_StyleTint(t *testing.T) {
	s := graph.New()
	a := addAt(t, s, 5, 2, "A")
	b := addAt(t, s, 15, 2, "B")
	a.Style.Color = "#FF0000"
	b.Style.Color = "not a colour"
	e, err := s.AddDefaultEdge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	e.Style.Color = "#00ff00"

	g := drawCanvas(interaction.NewSession(s), testCanvas)
	if got := g.at(5, 2).tint; got != "#ff0000" {
		t.Errorf("vertex A tint = %q", got)
	}
	if got := g.at(15, 2).tint; got != "" {
		t.Errorf("unparsable colour should be ignored, got %q", got)
	}
	if got := g.at(10, 2).tint; got != "#00ff00" {
		t.Errorf("edge tint = %q", got)
	}

	// Tinted runs still render their text.
	lines := strings.Split(g.render(plainTheme()), "\n")
	if !strings.Contains(lines[2], "(A)───────(B)") {
		t.Errorf("row 2 = %q", lines[2])
	}
}
