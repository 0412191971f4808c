// Package ui is the terminal front end: a Bubble Tea program that feeds
// mouse and key events to an interaction.Session and draws the graph on a
// character grid.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/graphsketch/pkg/analysis"
	"github.com/vanderheijden86/graphsketch/pkg/config"
	"github.com/vanderheijden86/graphsketch/pkg/editmode"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
	"github.com/vanderheijden86/graphsketch/pkg/traversal"
	"github.com/vanderheijden86/graphsketch/pkg/watcher"
)

const (
	// header, status and footer rows around the canvas
	chromeRows     = 3
	sidePanelWidth = 34
)

// Model is the Bubble Tea model of the editor.
type Model struct {
	session *interaction.Session
	sink    *sink

	cfg    config.Config
	theme  Theme
	keys   keyMap
	help   help.Model
	canvas Canvas
	width  int
	height int
	// fixedBounds is set when the config pins the canvas size; otherwise
	// the editable area follows the terminal.
	fixedBounds bool

	source     string
	autosaver  *persist.Autosaver
	every      time.Duration
	saving     bool
	dirty      bool
	dirtyRev   uint64
	dirtyValid bool // cleared whenever the saved bytes change
	watcher    *watcher.Watcher
	// pendingReload holds an external change that arrived mid-gesture or
	// mid-edit.
	pendingReload *watcher.Event

	showEdit   bool
	editPanel  EditPanel
	showWeight bool
	weight     textinput.Model
	showHelp   bool
	helpView   string

	footer      analysis.Summary
	footerRev   uint64
	footerValid bool

	showInsights bool
	insights     *analysis.Summary
	insightsRev  uint64
	analyzing    bool

	confirmClear bool
	quitting     bool
	copyFn       func(string) error
}

// Option configures a Model.
type Option func(*Model)

// WithConfig applies cfg to gestures, pacing, canvas scale and the footer.
func WithConfig(cfg config.Config) Option { return func(m *Model) { m.cfg = cfg } }

// WithAutosave saves the graph to saver every interval when it changed.
func WithAutosave(saver persist.Saver, every time.Duration) Option {
	return func(m *Model) {
		m.autosaver = persist.NewAutosaver(saver)
		m.every = every
	}
}

// WithWatcher reloads the graph when w reports an external change. The
// watcher must already be started.
func WithWatcher(w *watcher.Watcher) Option { return func(m *Model) { m.watcher = w } }

// WithSource names the open graph in the header.
func WithSource(name string) Option { return func(m *Model) { m.source = name } }

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option { return func(m *Model) { m.copyFn = fn } }

// WithTheme overrides the default theme.
func WithTheme(t Theme) Option { return func(m *Model) { m.theme = t } }

// NewModel returns the editor over store.
func NewModel(store *graph.Store, opts ...Option) Model {
	m := Model{
		sink:   &sink{},
		cfg:    config.DefaultConfig(),
		theme:  DefaultTheme(lipgloss.DefaultRenderer()),
		keys:   defaultKeyMap(),
		help:   help.New(),
		copyFn: clipboard.WriteAll,
		width:  80,
		height: 24,
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.canvas = Canvas{CellWidth: m.cfg.Canvas.CellWidth, CellHeight: m.cfg.Canvas.CellHeight}
	if m.canvas.CellWidth <= 0 || m.canvas.CellHeight <= 0 {
		m.canvas.CellWidth, m.canvas.CellHeight = 10, 20
	}
	iopts := m.cfg.InteractionOptions()
	m.fixedBounds = !iopts.Bounds.IsZero()
	m.session = interaction.NewSession(store,
		interaction.WithStatus(m.sink),
		interaction.WithRender(m.sink),
		interaction.WithScheduler(m.sink),
		interaction.WithOptions(iopts),
		interaction.WithStepDelay(m.cfg.StepDelay()),
	)

	m.weight = textinput.New()
	m.weight.Prompt = "weight: "
	m.weight.Placeholder = "none"
	m.weight.CharLimit = 12

	if m.autosaver != nil {
		// the graph was just loaded from the save target
		if data, _, err := m.autosaver.Encode(store); err == nil {
			m.autosaver.MarkSaved(data)
		}
	}
	m.layout()
	m.refreshFooter()
	return m
}

// Session exposes the interaction session, for tests and embedding.
func (m Model) Session() *interaction.Session { return m.session }

// Status returns the current status line text.
func (m Model) Status() string { return m.sink.status }

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.autosaver != nil && m.every > 0 {
		cmds = append(cmds, autosaveTickCmd(m.every))
	}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		if m.showHelp {
			m.helpView = renderHelp(m.width)
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case holdElapsedMsg:
		m.session.HoldElapsed(msg.token)

	case stepElapsedMsg:
		m.session.StepElapsed(msg.token)

	case autosaveTickMsg:
		cmds = append(cmds, m.saveCmd(false), autosaveTickCmd(m.every))

	case savedMsg:
		m.handleSaved(msg)

	case FileChangedMsg:
		m.handleFileChanged(msg.Event)
		cmds = append(cmds, WatchFileCmd(m.watcher))

	case insightsMsg:
		m.analyzing = false
		s := msg.summary
		m.insights = &s
		m.insightsRev = msg.rev
	}

	m.syncEditPanel()
	m.applyPendingReload()
	m.refreshFooter()
	m.refreshDirty()
	cmds = append(cmds, m.refreshInsights())
	cmds = append(cmds, m.sink.drain()...)
	if m.quitting {
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

// handleMouse translates a mouse event on the canvas into session pointer
// events. Events over the header, footer or side panel are ignored, except
// releases, which always end the gesture.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.showHelp {
		return
	}
	col, row := msg.X, msg.Y-1
	inside := col >= 0 && row >= 0 && col < m.canvas.Cols && row < m.canvas.Rows
	pt := m.canvas.ToGraph(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if !inside {
			return
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.session.PointerDown(pt, interaction.Primary)
		case tea.MouseButtonRight:
			m.session.PointerDown(pt, interaction.Secondary)
		}
	case tea.MouseActionMotion:
		m.session.PointerMove(pt)
	case tea.MouseActionRelease:
		if msg.Button == tea.MouseButtonRight {
			return
		}
		m.session.PointerUp(pt)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.quit()
		return nil
	}

	if m.showHelp {
		m.showHelp = false
		return nil
	}

	if m.showEdit {
		var cmd tea.Cmd
		m.editPanel, cmd = m.editPanel.Update(msg, m.session.Modes())
		switch {
		case m.editPanel.IsCancelRequested():
			m.session.CancelEdit()
		case m.editPanel.IsSaveRequested():
			m.session.SaveEdit()
			// a failed save keeps the mode and the panel
			m.editPanel.ClearRequests()
		}
		return cmd
	}

	if m.showWeight {
		return m.handleWeightKey(msg)
	}

	if m.session.Modes().Mode() == editmode.Delete {
		switch msg.String() {
		case "enter":
			m.session.CommitDelete()
		case "esc":
			m.session.CancelDelete()
		case "q":
			m.quit()
		case "?":
			m.openHelp()
		}
		return nil
	}

	armed := m.confirmClear
	m.confirmClear = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit()
	case key.Matches(msg, m.keys.Help):
		m.openHelp()
	case key.Matches(msg, m.keys.BFS):
		m.session.RunSearch(traversal.BFS)
	case key.Matches(msg, m.keys.DFS):
		m.session.RunSearch(traversal.DFS)
	case key.Matches(msg, m.keys.Stop):
		if mode, _ := m.session.Distance(); msg.String() == "esc" && mode != interaction.DistanceOff {
			m.session.ToggleDistanceMode()
			break
		}
		m.session.StopSearch()
	case key.Matches(msg, m.keys.Distance):
		m.session.ToggleDistanceMode()
	case key.Matches(msg, m.keys.PinRoot):
		m.session.PinRoot()
	case key.Matches(msg, m.keys.Delete):
		m.session.EnterDeleteMode()
	case key.Matches(msg, m.keys.EdgeType):
		m.session.CycleEdgeType()
	case key.Matches(msg, m.keys.Direction):
		m.session.CycleDirection()
	case key.Matches(msg, m.keys.Weight):
		m.showWeight = true
		m.weight.SetValue("")
		if w := m.session.Store().Settings().Weight; w != nil {
			m.weight.SetValue(formatWeight(*w))
		}
		return m.weight.Focus()
	case key.Matches(msg, m.keys.Clear):
		if !armed {
			m.confirmClear = true
			m.sink.Report("Press C again to clear the graph")
			break
		}
		m.session.ClearGraph()
	case key.Matches(msg, m.keys.Copy):
		m.copyPath()
	case key.Matches(msg, m.keys.Save):
		return m.saveCmd(true)
	case key.Matches(msg, m.keys.Insights):
		m.showInsights = !m.showInsights
		m.layout()
	}
	return nil
}

func (m *Model) handleWeightKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.showWeight = false
		m.weight.Blur()
		return nil
	case "enter":
		w, err := parseOptionalFloat(m.weight.Value())
		if err != nil {
			m.sink.reportError(fmt.Sprintf("Not a weight: %q", m.weight.Value()))
			return nil
		}
		m.showWeight = false
		m.weight.Blur()
		m.session.SetDefaultWeight(w)
		return nil
	}
	var cmd tea.Cmd
	m.weight, cmd = m.weight.Update(msg)
	return cmd
}

func (m *Model) openHelp() {
	m.showHelp = true
	m.helpView = renderHelp(m.width)
}

// currentPath is the last distance result, or else the last search path.
func (m *Model) currentPath() string {
	if hop := m.session.LastHop(); hop != nil && hop.Reachable() {
		return fmt.Sprintf("%s (distance %d)", interaction.FormatPath(hop.Path), hop.Distance)
	}
	if p := m.session.Engine().Path(); len(p) > 0 {
		return interaction.FormatPath(p)
	}
	return ""
}

// copyPath puts the current path on the clipboard.
func (m *Model) copyPath() {
	text := m.currentPath()
	if text == "" {
		m.sink.reportError("No path to copy")
		return
	}
	if err := m.copyFn(text); err != nil {
		m.sink.reportError(fmt.Sprintf("Clipboard error: %v", err))
		return
	}
	m.sink.Report("Copied " + text)
}

func (m *Model) quit() {
	m.flush()
	m.quitting = true
}

// syncEditPanel opens, retargets or closes the edit panel to follow the
// controller's mode.
func (m *Model) syncEditPanel() {
	modes := m.session.Modes()
	if modes.Mode() != editmode.Edit {
		if m.showEdit {
			m.showEdit = false
			m.layout()
		}
		return
	}
	v := modes.Editing()
	if m.showEdit && m.editPanel.VertexID() == v.ID {
		return
	}
	prev, _ := modes.Preview()
	m.editPanel = NewEditPanel(v, prev, m.theme)
	if !m.showEdit {
		m.showEdit = true
		m.layout()
	}
}

// layout sizes the canvas to the window minus chrome and side panel.
func (m *Model) layout() {
	cols := m.width
	if m.showEdit || m.showInsights {
		cols -= sidePanelWidth
	}
	m.canvas.Cols = max(cols, 1)
	m.canvas.Rows = max(m.height-chromeRows, 1)
	if !m.fixedBounds {
		m.session.SetBounds(m.canvas.Bounds())
	}
}

func (m *Model) refreshFooter() {
	if !m.cfg.Analysis.Footer {
		return
	}
	store := m.session.Store()
	if m.footerValid && m.footerRev == store.Revision() {
		return
	}
	m.footer = analysis.Summarize(store, analysis.FastConfig())
	m.footerRev = store.Revision()
	m.footerValid = true
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if m.quitting {
		return ""
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.helpView)
	}

	body := renderCanvas(m.session, m.canvas, m.theme)
	switch {
	case m.showEdit:
		prev, _ := m.session.Modes().Preview()
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.editPanel.View(prev, sidePanelWidth))
	case m.showInsights:
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderInsights(sidePanelWidth))
	}

	return strings.Join([]string{
		m.renderHeader(),
		body,
		m.renderStatusLine(),
		m.renderFooter(),
	}, "\n")
}

func (m Model) modeName() string {
	switch {
	case m.session.Modes().Mode() == editmode.Edit:
		return "edit"
	case m.session.Modes().Mode() == editmode.Delete:
		return "delete"
	}
	if mode, _ := m.session.Distance(); mode != interaction.DistanceOff {
		return "distance"
	}
	if m.session.Engine().Active() {
		return "search"
	}
	return ""
}

func (m Model) renderHeader() string {
	store := m.session.Store()
	set := store.Settings()

	title := m.theme.Header.Render("graphsketch")
	parts := []string{title}
	if m.source != "" {
		parts = append(parts, truncate(m.source, 30))
	}
	parts = append(parts, fmt.Sprintf("%d vertices · %d edges", store.Len(), len(store.Edges())))

	newEdges := fmt.Sprintf("new: %s %s", set.EdgeType, set.Direction.Arrow())
	if set.Weight != nil {
		newEdges += " w=" + formatWeight(*set.Weight)
	}
	parts = append(parts, newEdges)
	if m.session.RootPinned() {
		parts = append(parts, "root: "+m.session.Root().Label)
	}
	if badge := RenderModeBadge(m.modeName()); badge != "" {
		parts = append(parts, badge)
	}
	if m.dirty {
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorWarning).Render("●"))
	}
	return truncateLine(strings.Join(parts, "  "), m.width)
}

func (m Model) renderStatusLine() string {
	if m.showWeight {
		return m.weight.View()
	}
	if m.sink.status == "" {
		return ""
	}
	return RenderStatus(m.sink.status, m.sink.isError, m.width)
}

func (m Model) renderFooter() string {
	var hints string
	if m.session.Modes().Mode() == editmode.Delete {
		hints = m.help.ShortHelpView(m.keys.deleteModeKeys())
	} else {
		hints = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	if !m.cfg.Analysis.Footer || !m.footerValid {
		return hints
	}
	summary := lipgloss.NewStyle().Foreground(ColorMuted).Render(m.footer.String())
	gap := m.width - lipgloss.Width(hints) - lipgloss.Width(summary)
	if gap < 2 {
		return hints
	}
	return hints + strings.Repeat(" ", gap) + summary
}

// truncateLine cuts a styled line to width cells.
func truncateLine(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
