package ui

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/graphsketch/pkg/editmode"
	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// cellRole decides how a canvas cell is styled. Later roles win when two
// things are drawn on the same cell.
type cellRole uint8

const (
	roleBlank cellRole = iota
	roleEdge
	rolePathEdge
	roleWeight
	roleVertex
	roleVisited
	rolePath
	roleRoot
	roleTarget
	rolePressed
	roleBuffer
	roleMarked
	roleEditing
	roleCount
)

// maxLabelWidth caps how many cells a vertex label takes on the canvas.
const maxLabelWidth = 12

// Canvas maps between terminal cells and graph coordinates. One cell is
// CellWidth by CellHeight graph units; a point maps to the cell containing
// it and a cell maps back to its centre.
type Canvas struct {
	Cols, Rows int
	CellWidth  float64
	CellHeight float64
}

// ToGraph returns the graph point at the centre of cell (col, row).
func (c Canvas) ToGraph(col, row int) interaction.Point {
	return interaction.Point{
		X: (float64(col) + 0.5) * c.CellWidth,
		Y: (float64(row) + 0.5) * c.CellHeight,
	}
}

// ToCell returns the cell containing graph point (x, y). The result may lie
// outside the visible grid.
func (c Canvas) ToCell(x, y float64) (col, row int) {
	return int(math.Floor(x / c.CellWidth)), int(math.Floor(y / c.CellHeight))
}

// Bounds is the graph rectangle covered by the grid.
func (c Canvas) Bounds() interaction.Bounds {
	return interaction.Bounds{MaxX: float64(c.Cols) * c.CellWidth, MaxY: float64(c.Rows) * c.CellHeight}
}

type cell struct {
	ch   rune // 0 marks the second half of a wide rune
	role cellRole
	tint string // hex foreground from the element's own style
}

type grid struct {
	cols, rows int
	cells      []cell
	pen        string // tint given to cells written next
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range g.cells {
		g.cells[i] = cell{ch: ' '}
	}
	return g
}

func (g *grid) at(col, row int) cell { return g.cells[row*g.cols+col] }

func (g *grid) in(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

// set writes ch unless a higher role already owns the cell.
func (g *grid) set(col, row int, ch rune, role cellRole) {
	if !g.in(col, row) {
		return
	}
	c := &g.cells[row*g.cols+col]
	if c.role > role {
		return
	}
	c.ch, c.role, c.tint = ch, role, g.pen
}

// put writes s starting at (col, row). Wide runes take two cells.
func (g *grid) put(col, row int, s string, role cellRole) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		g.set(col, row, r, role)
		if w == 2 {
			g.set(col+1, row, 0, role)
		}
		col += w
	}
}

// line draws the cells between two cells (Bresenham), endpoints excluded,
// and returns them in order from a to b.
func (g *grid) line(c0, r0, c1, r1 int, ch rune, role cellRole) [][2]int {
	var pts [][2]int
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	c, r := c0, r0
	for c != c1 || r != r1 {
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c += sc
		}
		if e2 <= dc {
			e += dc
			r += sr
		}
		if c == c1 && r == r1 {
			break
		}
		pts = append(pts, [2]int{c, r})
		g.set(c, r, ch, role)
	}
	return pts
}

func (g *grid) render(t Theme) string {
	var sb strings.Builder
	var run strings.Builder
	for row := 0; row < g.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		cur, tint := roleBlank, ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			switch {
			case cur == roleBlank:
				sb.WriteString(run.String())
			case tint != "":
				sb.WriteString(t.CellStyle(cur).Foreground(ThemeFg(tint)).Render(run.String()))
			default:
				sb.WriteString(t.CellStyle(cur).Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < g.cols; col++ {
			c := g.cells[row*g.cols+col]
			if c.ch == 0 {
				continue
			}
			if c.role != cur || c.tint != tint {
				flush()
				cur, tint = c.role, c.tint
			}
			run.WriteRune(c.ch)
		}
		flush()
	}
	return sb.String()
}

// edgeGlyph picks a line character from the edge slope in graph units.
func edgeGlyph(dx, dy float64, typ model.EdgeType) rune {
	if typ == model.EdgeCurved {
		return '·'
	}
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ay < ax*0.4:
		return '─'
	case ax < ay*0.4:
		return '│'
	case dx*dy > 0:
		return '╲'
	default:
		return '╱'
	}
}

// arrowGlyph points along (dx, dy) on the dominant axis.
func arrowGlyph(dx, dy float64) rune {
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return '▶'
		}
		return '◀'
	}
	if dy >= 0 {
		return '▼'
	}
	return '▲'
}

// styleTint normalises a style colour for the canvas. Colours that do not
// parse are ignored.
func styleTint(hex string) string {
	if hex == "" {
		return ""
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return ""
	}
	return c.Clamped().Hex()
}

// vertexText is what a vertex shows on the canvas.
func vertexText(label string) string {
	return "(" + truncate(label, maxLabelWidth) + ")"
}

// renderCanvas draws the session's graph, highlights and selection onto a
// c.Cols by c.Rows grid.
func renderCanvas(s *interaction.Session, c Canvas, t Theme) string {
	if c.Cols <= 0 || c.Rows <= 0 {
		return ""
	}
	return drawCanvas(s, c).render(t)
}

func drawCanvas(s *interaction.Session, c Canvas) *grid {
	g := newGrid(c.Cols, c.Rows)
	store := s.Store()
	engine := s.Engine()
	modes := s.Modes()

	onPath := pathPairs(engine.Path())
	if hop := s.LastHop(); hop != nil && !engine.Active() && len(engine.Path()) == 0 {
		onPath = pathPairs(hop.Path)
	}

	for _, e := range store.Edges() {
		c0, r0 := c.ToCell(e.From.X, e.From.Y)
		c1, r1 := c.ToCell(e.To.X, e.To.Y)
		dx, dy := e.To.X-e.From.X, e.To.Y-e.From.Y
		role := roleEdge
		g.pen = styleTint(e.Style.Color)
		if onPath[pairKey(e.From.ID, e.To.ID)] {
			role = rolePathEdge
			g.pen = ""
		}
		pts := g.line(c0, r0, c1, r1, edgeGlyph(dx, dy, e.Type), role)
		if len(pts) == 0 {
			continue
		}
		switch e.Direction {
		case model.DirectedForward:
			p := pts[len(pts)*2/3]
			g.set(p[0], p[1], arrowGlyph(dx, dy), role)
		case model.DirectedBackward:
			p := pts[len(pts)/3]
			g.set(p[0], p[1], arrowGlyph(-dx, -dy), role)
		}
		g.pen = ""
		if e.Weight != nil {
			mid := pts[len(pts)/2]
			g.put(mid[0]+1, mid[1], formatWeight(*e.Weight), roleWeight)
		}
	}

	var editing *model.Vertex
	var preview editmode.Preview
	if modes.Mode() == editmode.Edit {
		editing = modes.Editing()
		preview, _ = modes.Preview()
	}
	target, root, buffer, pressed := s.Target(), s.Root(), s.EdgeBuffer(), s.Pressed()
	_, distFirst := s.Distance()
	hopPath := map[int]bool{}
	if hop := s.LastHop(); hop != nil {
		for _, v := range hop.Path {
			hopPath[v.ID] = true
		}
	}

	for _, v := range store.Vertices() {
		label := v.Label
		role := roleVertex
		switch {
		case v == editing:
			role = roleEditing
			label = preview.Label
			if preview.PendingDelete {
				role = roleMarked
			}
		case modes.IsMarked(v.ID):
			role = roleMarked
		case v == buffer || v == distFirst:
			role = roleBuffer
		case v == pressed:
			role = rolePressed
		case v == target:
			role = roleTarget
		case v == root && s.RootPinned():
			role = roleRoot
		case engine.InPath(v.ID) || hopPath[v.ID]:
			role = rolePath
		case engine.IsVisited(v.ID):
			role = roleVisited
		}
		g.pen = ""
		if role == roleVertex {
			g.pen = styleTint(v.Style.Color)
		}
		text := vertexText(label)
		col, row := c.ToCell(v.X, v.Y)
		g.put(col-runewidth.StringWidth(text)/2, row, text, role)
	}
	g.pen = ""
	return g
}

func pairKey(a, b int) [2]int {
	if b < a {
		a, b = b, a
	}
	return [2]int{a, b}
}

func pathPairs(path []*model.Vertex) map[[2]int]bool {
	pairs := make(map[[2]int]bool, len(path))
	for i := 1; i < len(path); i++ {
		pairs[pairKey(path[i-1].ID, path[i].ID)] = true
	}
	return pairs
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
