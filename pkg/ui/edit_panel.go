package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/graphsketch/pkg/editmode"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// editField identifies the focused input of the edit panel.
type editField int

const (
	fieldLabel editField = iota
	fieldSize
)

// EditPanel is the side panel shown while a vertex is in edit mode. Every
// keystroke is staged on the edit controller straight away, so the canvas
// previews the change; nothing is committed until save.
type EditPanel struct {
	vertexID int
	label    textinput.Model
	size     textinput.Model
	focused  editField
	sizeErr  string
	theme    Theme

	saveRequested   bool
	cancelRequested bool
}

// NewEditPanel returns a panel for v populated from the staged preview.
func NewEditPanel(v *model.Vertex, p editmode.Preview, theme Theme) EditPanel {
	label := textinput.New()
	label.Prompt = ""
	label.CharLimit = 64
	label.Width = 20
	label.SetValue(p.Label)
	label.Focus()

	size := textinput.New()
	size.Prompt = ""
	size.CharLimit = 8
	size.Width = 8
	size.Placeholder = "default"
	if p.Size > 0 {
		size.SetValue(strconv.FormatFloat(p.Size, 'f', -1, 64))
	}

	return EditPanel{vertexID: v.ID, label: label, size: size, theme: theme}
}

// VertexID is the id of the vertex the panel edits.
func (p EditPanel) VertexID() int { return p.vertexID }

// Update handles a key for the panel and stages the result on modes.
func (p EditPanel) Update(msg tea.Msg, modes *editmode.Controller) (EditPanel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch km.String() {
	case "esc":
		p.cancelRequested = true
		return p, nil
	case "enter", "ctrl+s":
		p.saveRequested = true
		return p, nil
	case "tab", "shift+tab", "up", "down":
		p.toggleFocus()
		return p, nil
	case "ctrl+a":
		if prev, err := modes.Preview(); err == nil {
			_ = modes.SetApplyToAll(!prev.ApplyToAll)
		}
		return p, nil
	case "ctrl+d":
		_, _ = modes.TogglePendingDelete()
		return p, nil
	}

	var cmd tea.Cmd
	switch p.focused {
	case fieldLabel:
		p.label, cmd = p.label.Update(km)
		_ = modes.SetLabel(strings.TrimSpace(p.label.Value()))
	case fieldSize:
		p.size, cmd = p.size.Update(km)
		p.stageSize(modes)
	}
	return p, cmd
}

func (p *EditPanel) toggleFocus() {
	if p.focused == fieldLabel {
		p.focused = fieldSize
		p.label.Blur()
		p.size.Focus()
		return
	}
	p.focused = fieldLabel
	p.size.Blur()
	p.label.Focus()
}

// stageSize stages the typed size. Empty means the graph default; text
// that is not a finite non-negative number is left unstaged and flagged.
func (p *EditPanel) stageSize(modes *editmode.Controller) {
	raw := strings.TrimSpace(p.size.Value())
	if raw == "" {
		p.sizeErr = ""
		_ = modes.SetSize(0)
		return
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		p.sizeErr = "not a size"
		return
	}
	p.sizeErr = ""
	_ = modes.SetSize(f)
}

// IsSaveRequested returns true if enter or ctrl+s was pressed
func (p EditPanel) IsSaveRequested() bool { return p.saveRequested }

// IsCancelRequested returns true if esc was pressed
func (p EditPanel) IsCancelRequested() bool { return p.cancelRequested }

// ClearRequests resets the save/cancel flags, e.g. after a save failed
// and the panel stays open.
func (p *EditPanel) ClearRequests() {
	p.saveRequested = false
	p.cancelRequested = false
}

// View renders the panel for the current preview.
func (p EditPanel) View(prev editmode.Preview, width int) string {
	r := p.theme.Renderer
	header := r.NewStyle().Bold(true).Foreground(p.theme.Primary)
	labelStyle := r.NewStyle().Foreground(p.theme.Secondary).Width(7).Align(lipgloss.Right)
	focusedStyle := r.NewStyle().Foreground(p.theme.Primary).Bold(true).Width(7).Align(lipgloss.Right)
	hint := r.NewStyle().Foreground(p.theme.Subtext).Italic(true)

	fieldLabelView := func(name string, f editField) string {
		if p.focused == f {
			return focusedStyle.Render(name + ":")
		}
		return labelStyle.Render(name + ":")
	}
	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	var b strings.Builder
	b.WriteString(header.Render("Edit vertex"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", fieldLabelView("Label", fieldLabel), p.label.View())
	fmt.Fprintf(&b, "%s %s", fieldLabelView("Size", fieldSize), p.size.View())
	if p.sizeErr != "" {
		b.WriteString(" " + r.NewStyle().Foreground(ColorDanger).Render(p.sizeErr))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s apply size to all\n", check(prev.ApplyToAll))
	deleteLine := fmt.Sprintf("%s delete on save", check(prev.PendingDelete))
	if prev.PendingDelete {
		deleteLine = r.NewStyle().Foreground(ColorDanger).Render(deleteLine)
	}
	b.WriteString(deleteLine)
	b.WriteString("\n\n")
	b.WriteString(hint.Render("tab field · ^a all · ^d delete\nenter save · esc cancel"))

	return FocusedPanelStyle.Width(max(width-2, 10)).Render(b.String())
}
