package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/graphsketch/pkg/editmode"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
	"github.com/vanderheijden86/graphsketch/pkg/watcher"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func newTestModel(t *testing.T, store *graph.Store, opts ...Option) Model {
	t.Helper()
	if store == nil {
		store = graph.New()
	}
	base := []Option{WithTheme(plainTheme()), WithClipboard(func(string) error { return nil })}
	m := NewModel(store, append(base, opts...)...)
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 24})
}

// Screen rows are offset by the header line: cell (col, row) is at
// screen (col, row+1).

func press(x, y int, b tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: b}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}
}

func click(t *testing.T, m Model, x, y int) Model {
	t.Helper()
	m = update(t, m, press(x, y, tea.MouseButtonLeft))
	return update(t, m, release(x, y))
}

// hold presses at (x, y), fires the armed hold timer and releases.
func hold(t *testing.T, m Model, x, y int) Model {
	t.Helper()
	armed := m.sink.holdsArmed
	m = update(t, m, press(x, y, tea.MouseButtonLeft))
	if m.sink.holdsArmed == armed {
		t.Fatal("press did not arm a hold")
	}
	m = update(t, m, holdElapsedMsg{token: m.sink.lastHold})
	return update(t, m, release(x, y))
}

func keys(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func keyOf(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = update(t, m, keys(string(r)))
	}
	return m
}

// pair returns a store with A at cell (10,4) and B at cell (30,4).
func pair(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.New()
	addAt(t, s, 10, 4, "A")
	addAt(t, s, 30, 4, "B")
	return s
}

// chain returns A-B-C placed diagonally, A topmost.
func chain(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.New()
	a := addAt(t, s, 10, 2, "A")
	b := addAt(t, s, 30, 4, "B")
	c := addAt(t, s, 50, 6, "C")
	if _, err := s.AddDefaultEdge(a, b); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddDefaultEdge(b, c); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestModel_ClickCreatesAndTargets(t *testing.T) {
	m := newTestModel(t, nil)
	m = click(t, m, 10, 5)

	store := m.Session().Store()
	if store.Len() != 1 {
		t.Fatalf("expected 1 vertex, got %d", store.Len())
	}
	if got := m.Status(); got != "Added vertex 1" {
		t.Errorf("status = %q", got)
	}
	v := store.Vertices()[0]
	if v.X != 105 || v.Y != 90 {
		t.Errorf("vertex at (%g, %g)", v.X, v.Y)
	}

	m = click(t, m, 10, 5)
	if store.Len() != 1 {
		t.Errorf("clicking a vertex must not create another")
	}
	if m.Session().Target() != v {
		t.Errorf("target = %v", m.Session().Target())
	}
	if got := m.Status(); got != "Target: 1" {
		t.Errorf("status = %q", got)
	}
}

func TestModel_PressOutsideCanvasIgnored(t *testing.T) {
	m := newTestModel(t, nil)
	m = click(t, m, 10, 0) // header row
	m = click(t, m, 10, 23)
	if n := m.Session().Store().Len(); n != 0 {
		t.Errorf("expected no vertices, got %d", n)
	}
}

func TestModel_DragMovesAndSwallowsClick(t *testing.T) {
	m := newTestModel(t, pair(t))
	a := m.Session().Store().FindByLabel("A")

	m = update(t, m, press(10, 5, tea.MouseButtonLeft))
	m = update(t, m, motion(20, 5))
	if m.Session().Phase() != interaction.Dragging {
		t.Fatalf("phase = %v", m.Session().Phase())
	}
	m = update(t, m, release(20, 5))
	if a.X != 205 || a.Y != 90 {
		t.Errorf("A at (%g, %g), want (205, 90)", a.X, a.Y)
	}

	// the synthetic click right after the release is dropped
	m = update(t, m, press(20, 5, tea.MouseButtonLeft))
	if m.Session().Phase() != interaction.Idle {
		t.Errorf("press after drag should be swallowed, phase = %v", m.Session().Phase())
	}
	if m.Session().Target() != nil {
		t.Errorf("swallowed press must not select")
	}
	if n := m.Session().Store().Len(); n != 2 {
		t.Errorf("vertex count = %d", n)
	}
}

func TestModel_HoldOpensEditPanelAndSaves(t *testing.T) {
	m := newTestModel(t, pair(t))
	m = hold(t, m, 10, 5)

	if m.Session().Modes().Mode() != editmode.Edit {
		t.Fatalf("mode = %v", m.Session().Modes().Mode())
	}
	if !m.showEdit {
		t.Fatal("edit panel should be open")
	}
	if m.canvas.Cols != 100-sidePanelWidth {
		t.Errorf("canvas cols = %d", m.canvas.Cols)
	}

	m = typeText(t, m, "x")
	m = update(t, m, keyOf(tea.KeyBackspace))
	m = typeText(t, m, "1")
	prev, err := m.Session().Modes().Preview()
	if err != nil {
		t.Fatal(err)
	}
	if prev.Label != "A1" {
		t.Errorf("preview label = %q", prev.Label)
	}
	if m.Session().Store().FindByLabel("A") == nil {
		t.Error("store must not change before save")
	}
	if !strings.Contains(m.View(), "Edit vertex") {
		t.Error("view should show the edit panel")
	}

	m = update(t, m, keyOf(tea.KeyEnter))
	if m.Session().Modes().Active() {
		t.Error("save should leave edit mode")
	}
	if m.showEdit {
		t.Error("panel should close after save")
	}
	if m.Session().Store().FindByLabel("A1") == nil {
		t.Error("label not committed")
	}
	if got := m.Status(); got != "Saved A1" {
		t.Errorf("status = %q", got)
	}
}

func TestModel_EditDuplicateLabelKeepsPanel(t *testing.T) {
	m := newTestModel(t, pair(t))
	m = hold(t, m, 10, 5)
	m = update(t, m, keyOf(tea.KeyBackspace))
	m = typeText(t, m, "B")
	m = update(t, m, keyOf(tea.KeyEnter))

	if m.Session().Modes().Mode() != editmode.Edit || !m.showEdit {
		t.Fatal("a rejected save keeps edit mode open")
	}
	if !strings.Contains(m.Status(), "B") {
		t.Errorf("status = %q", m.Status())
	}
	if m.editPanel.IsSaveRequested() {
		t.Error("save request should be cleared")
	}
	m = update(t, m, keyOf(tea.KeyEsc))
	if m.Session().Modes().Active() {
		t.Error("esc should cancel")
	}
	if m.Session().Store().FindByLabel("A") == nil {
		t.Error("cancel must keep the original label")
	}
}

func TestModel_EditApplyToAllRevertsOnCancel(t *testing.T) {
	m := newTestModel(t, pair(t))
	store := m.Session().Store()
	a, b := store.FindByLabel("A"), store.FindByLabel("B")

	m = hold(t, m, 10, 5)
	m = update(t, m, keyOf(tea.KeyTab))
	m = typeText(t, m, "30")
	if a.Size != 0 || b.Size != 0 {
		t.Fatalf("size staged too early: A=%g B=%g", a.Size, b.Size)
	}
	m = update(t, m, keyOf(tea.KeyCtrlA))
	if b.Size != 30 {
		t.Errorf("apply to all should mirror onto B, got %g", b.Size)
	}
	if a.Size != 0 {
		t.Errorf("edited vertex changes only on save, got %g", a.Size)
	}

	m = update(t, m, keyOf(tea.KeyEsc))
	if b.Size != 0 {
		t.Errorf("cancel should restore B, got %g", b.Size)
	}
	if got := m.Status(); got != "Edit cancelled" {
		t.Errorf("status = %q", got)
	}
}

func TestModel_EditPendingDelete(t *testing.T) {
	m := newTestModel(t, pair(t))
	m = click(t, m, 10, 5)
	m = hold(t, m, 10, 5)
	m = update(t, m, keyOf(tea.KeyCtrlD))
	m = update(t, m, keyOf(tea.KeyEnter))

	if got := m.Status(); got != "Deleted vertex A" {
		t.Errorf("status = %q", got)
	}
	if m.Session().Store().Len() != 1 {
		t.Errorf("vertex count = %d", m.Session().Store().Len())
	}
	if m.Session().Target() != nil {
		t.Error("deleted target should be forgotten")
	}
}

func TestModel_RightClickConnects(t *testing.T) {
	m := newTestModel(t, pair(t))
	m = update(t, m, press(10, 5, tea.MouseButtonRight))
	if m.Session().EdgeBuffer() == nil {
		t.Fatal("first right click should buffer A")
	}
	m = update(t, m, press(30, 5, tea.MouseButtonRight))
	if got := m.Status(); got != "Added edge A—B" {
		t.Errorf("status = %q", got)
	}
	if n := len(m.Session().Store().Edges()); n != 1 {
		t.Fatalf("edge count = %d", n)
	}

	m = update(t, m, press(30, 5, tea.MouseButtonRight))
	m = update(t, m, press(10, 5, tea.MouseButtonRight))
	if got := m.Status(); got != "Edge between B and A already exists" {
		t.Errorf("status = %q", got)
	}
}

func TestModel_SearchAnimatesAndCopies(t *testing.T) {
	var copied string
	m := newTestModel(t, chain(t), WithClipboard(func(s string) error {
		copied = s
		return nil
	}))

	m = update(t, m, keys("y"))
	if got := m.Status(); got != "No path to copy" || !m.sink.isError {
		t.Errorf("status = %q", got)
	}

	m = click(t, m, 50, 7)
	m = update(t, m, keys("b"))
	if !m.Session().Engine().Active() {
		t.Fatal("search should be running")
	}
	if !strings.Contains(m.View(), "search") {
		t.Error("header should show the search badge")
	}
	for i := 0; m.Session().Engine().Active(); i++ {
		if i > 10 {
			t.Fatal("search did not finish")
		}
		m = update(t, m, stepElapsedMsg{token: m.sink.lastStep})
	}
	if got := m.Status(); got != "BFS found C: A → B → C" {
		t.Errorf("status = %q", got)
	}

	m = update(t, m, keys("y"))
	if copied != "A → B → C" {
		t.Errorf("copied %q", copied)
	}
	if got := m.Status(); got != "Copied A → B → C" {
		t.Errorf("status = %q", got)
	}

	m = update(t, m, keys("s"))
	if len(m.Session().Engine().Path()) != 0 {
		t.Error("stop should clear the finished path")
	}
}

func TestModel_StaleStepIgnored(t *testing.T) {
	m := newTestModel(t, chain(t))
	m = click(t, m, 50, 7)
	m = update(t, m, keys("b"))
	token := m.sink.lastStep
	m = update(t, m, keys("s"))
	visited := len(m.Session().Engine().Visited())
	m = update(t, m, stepElapsedMsg{token: token})
	if got := len(m.Session().Engine().Visited()); got != visited {
		t.Errorf("stale step advanced the search: %d -> %d", visited, got)
	}
}

func TestModel_DistanceMode(t *testing.T) {
	var copied string
	m := newTestModel(t, chain(t), WithClipboard(func(s string) error {
		copied = s
		return nil
	}))
	m = update(t, m, keys("m"))
	m = click(t, m, 10, 3)
	m = click(t, m, 50, 7)
	if got := m.Status(); got != "Distance A to C: 2 (A → B → C)" {
		t.Errorf("status = %q", got)
	}
	m = update(t, m, keys("y"))
	if copied != "A → B → C (distance 2)" {
		t.Errorf("copied %q", copied)
	}

	m = update(t, m, keys("m"))
	m = update(t, m, keyOf(tea.KeyEsc))
	if mode, _ := m.Session().Distance(); mode != interaction.DistanceOff {
		t.Errorf("esc should leave distance mode, got %v", mode)
	}
}

func TestModel_DeleteMode(t *testing.T) {
	m := newTestModel(t, pair(t))

	m = update(t, m, keys("x"))
	if m.Session().Modes().Mode() != editmode.Delete {
		t.Fatalf("mode = %v", m.Session().Modes().Mode())
	}
	m = click(t, m, 10, 5)
	if got := m.Status(); got != "Marked A for deletion (1 marked)" {
		t.Errorf("status = %q", got)
	}
	m = click(t, m, 60, 10)
	if n := m.Session().Store().Len(); n != 2 {
		t.Errorf("empty click in delete mode created a vertex")
	}
	m = update(t, m, keyOf(tea.KeyEnter))
	if got := m.Status(); got != "Deleted 1 vertices" {
		t.Errorf("status = %q", got)
	}
	if m.Session().Store().FindByLabel("A") != nil {
		t.Error("A should be gone")
	}

	m = update(t, m, keys("x"))
	m = click(t, m, 30, 5)
	m = update(t, m, keyOf(tea.KeyEsc))
	if got := m.Status(); got != "Delete cancelled" {
		t.Errorf("status = %q", got)
	}
	if m.Session().Store().Len() != 1 || m.Session().Modes().Active() {
		t.Error("cancel should restore the graph and leave the mode")
	}
}

func TestModel_ClearNeedsConfirmation(t *testing.T) {
	m := newTestModel(t, pair(t))

	m = update(t, m, keys("C"))
	if got := m.Status(); got != "Press C again to clear the graph" {
		t.Errorf("status = %q", got)
	}
	m = update(t, m, keys("t"))
	m = update(t, m, keys("C"))
	if m.Session().Store().Len() != 2 {
		t.Fatal("another key in between must disarm the clear")
	}
	m = update(t, m, keys("C"))
	if got := m.Status(); got != "Graph cleared" {
		t.Errorf("status = %q", got)
	}
	if m.Session().Store().Len() != 0 {
		t.Error("graph should be empty")
	}
}

func TestModel_WeightPrompt(t *testing.T) {
	m := newTestModel(t, nil)

	m = update(t, m, keys("w"))
	if !m.showWeight {
		t.Fatal("w should open the weight prompt")
	}
	m = typeText(t, m, "abc")
	m = update(t, m, keyOf(tea.KeyEnter))
	if got := m.Status(); got != `Not a weight: "abc"` {
		t.Errorf("status = %q", got)
	}
	if !m.showWeight {
		t.Error("an invalid weight keeps the prompt open")
	}
	m = update(t, m, keyOf(tea.KeyEsc))
	if m.showWeight {
		t.Error("esc should close the prompt")
	}

	m = update(t, m, keys("w"))
	m = typeText(t, m, "2.5")
	m = update(t, m, keyOf(tea.KeyEnter))
	w := m.Session().Store().Settings().Weight
	if w == nil || *w != 2.5 {
		t.Fatalf("weight = %v", w)
	}
	if got := m.Status(); got != "New edges: weight 2.5" {
		t.Errorf("status = %q", got)
	}

	m = update(t, m, keys("w"))
	if got := m.weight.Value(); got != "2.5" {
		t.Errorf("prompt prefill = %q", got)
	}
	for range 3 {
		m = update(t, m, keyOf(tea.KeyBackspace))
	}
	m = update(t, m, keyOf(tea.KeyEnter))
	if m.Session().Store().Settings().Weight != nil {
		t.Error("an empty weight clears it")
	}
}

func TestModel_EdgeDefaultsInHeader(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m, keys("t"))
	m = update(t, m, keys("o"))
	set := m.Session().Store().Settings()
	if !strings.Contains(m.View(), "new: "+string(set.EdgeType)+" "+set.Direction.Arrow()) {
		t.Errorf("header does not show %s %s", set.EdgeType, set.Direction)
	}
}

func TestModel_SaveAndQuitFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	m := newTestModel(t, pair(t), WithAutosave(persist.NewFileStore(path), time.Minute))

	if cmd := m.saveCmd(true); cmd != nil {
		t.Fatal("unchanged graph should not be saved")
	}
	if got := m.Status(); got != "No changes to save" {
		t.Errorf("status = %q", got)
	}

	m = click(t, m, 60, 10)
	if !strings.Contains(m.renderHeader(), "●") {
		t.Error("header should mark unsaved changes")
	}
	cmd := m.saveCmd(true)
	if cmd == nil {
		t.Fatal("changed graph should be saved")
	}
	if m.saveCmd(false) != nil {
		t.Error("no second save while one is in flight")
	}
	m = update(t, m, cmd())
	if got := m.Status(); got != "Saved to "+path {
		t.Errorf("status = %q", got)
	}
	loaded, err := persist.NewFileStore(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 3 {
		t.Errorf("saved %d vertices", loaded.Len())
	}
	if m.saveCmd(false) != nil {
		t.Error("nothing changed since the last save")
	}
	if strings.Contains(m.renderHeader(), "●") {
		t.Error("dirty marker should clear after saving")
	}

	m = click(t, m, 70, 12)
	m = update(t, m, keys("q"))
	if !m.quitting || m.View() != "" {
		t.Error("q should quit")
	}
	loaded, err = persist.NewFileStore(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 4 {
		t.Errorf("quit should flush, file has %d vertices", loaded.Len())
	}
}

func TestModel_SaveBlockedInMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	m := newTestModel(t, pair(t), WithAutosave(persist.NewFileStore(path), time.Minute))
	m = click(t, m, 60, 10)
	m = update(t, m, keys("x"))
	if cmd := m.saveCmd(true); cmd != nil {
		t.Error("delete mode should block saving")
	}
	if got := m.Status(); got != "Finish delete mode first" {
		t.Errorf("status = %q", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist: %v", err)
	}
}

func TestModel_NoSaveTarget(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m, keyOf(tea.KeyCtrlS))
	if got := m.Status(); got != "No save target" {
		t.Errorf("status = %q", got)
	}
}

func externalChange(t *testing.T, path string) FileChangedMsg {
	t.Helper()
	other := pair(t)
	addAt(t, other, 50, 8, "C")
	data, err := persist.Marshal(other)
	if err != nil {
		t.Fatal(err)
	}
	return FileChangedMsg{Event: watcher.Event{Path: path, Data: data}}
}

func TestModel_ReloadOnExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	m := newTestModel(t, pair(t), WithAutosave(persist.NewFileStore(path), time.Minute))

	m = update(t, m, externalChange(t, path))
	if got := m.Status(); got != "Reloaded from disk: +1 vertex" {
		t.Errorf("status = %q", got)
	}
	if m.Session().Store().Len() != 3 {
		t.Errorf("vertex count = %d", m.Session().Store().Len())
	}
	if m.saveCmd(false) != nil {
		t.Error("reloaded content counts as saved")
	}

	// the same bytes again are our own state
	m.sink.Report("")
	m = update(t, m, externalChange(t, path))
	if m.Status() != "" {
		t.Errorf("known content should be ignored, status = %q", m.Status())
	}
}

func TestModel_ReloadWaitsForEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	m := newTestModel(t, pair(t), WithAutosave(persist.NewFileStore(path), time.Minute))

	m = hold(t, m, 10, 5)
	m = update(t, m, externalChange(t, path))
	if got := m.Status(); got != "File changed on disk; reloading when you are done" {
		t.Errorf("status = %q", got)
	}
	if m.Session().Store().Len() != 2 {
		t.Fatal("reload must wait for the edit to finish")
	}

	m = update(t, m, keyOf(tea.KeyEsc))
	if got := m.Status(); got != "Reloaded from disk: +1 vertex" {
		t.Errorf("status = %q", got)
	}
	if m.Session().Store().Len() != 3 {
		t.Errorf("vertex count = %d", m.Session().Store().Len())
	}
}

func TestModel_FileRemoved(t *testing.T) {
	m := newTestModel(t, pair(t))
	m = update(t, m, FileChangedMsg{Event: watcher.Event{Path: "g.json", Removed: true}})
	if !m.sink.isError || !strings.Contains(m.Status(), "g.json was removed") {
		t.Errorf("status = %q", m.Status())
	}
	if m.Session().Store().Len() != 2 {
		t.Error("removal must not clear the graph")
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t, pair(t), WithSource("demo.json"))
	m = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 30})
	view := m.View()

	for _, want := range []string{"graphsketch", "demo.json", "2 vertices · 0 edges", "(A)", "(B)", "2 vertices, 0 edges, 2 components"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Split(view, "\n"); len(lines) != 30 {
		t.Errorf("view has %d lines, want 30", len(lines))
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m, keys("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Mouse") {
		t.Fatal("? should show help")
	}
	m = update(t, m, keys("x"))
	if m.showHelp {
		t.Error("any key closes help")
	}
	if m.Session().Modes().Active() {
		t.Error("the closing key must not run its binding")
	}
}

func TestModel_Insights(t *testing.T) {
	m := newTestModel(t, chain(t))
	m = update(t, m, keys("i"))
	if !m.showInsights || !m.analyzing {
		t.Fatal("i should open insights and start an analysis")
	}
	if !strings.Contains(m.View(), "analyzing…") {
		t.Error("panel should show progress")
	}

	store := m.Session().Store()
	msg := analyzeCmd(store.Clone(), m.analysisConfig(), store.Revision())()
	m = update(t, m, msg)
	if m.analyzing || m.insights == nil {
		t.Fatal("insights should be stored")
	}
	view := m.View()
	for _, want := range []string{"Insights", "components", "cut"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.refreshInsights() != nil {
		t.Error("unchanged graph should not be re-analyzed")
	}
}
