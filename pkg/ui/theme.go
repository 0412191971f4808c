package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and ANSI white
// (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Canvas roles
	Vertex  lipgloss.AdaptiveColor
	Edge    lipgloss.AdaptiveColor
	Target  lipgloss.AdaptiveColor
	Root    lipgloss.AdaptiveColor
	Visited lipgloss.AdaptiveColor
	Path    lipgloss.AdaptiveColor
	Marked  lipgloss.AdaptiveColor
	Editing lipgloss.AdaptiveColor
	Buffer  lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Base   lipgloss.Style
	Header lipgloss.Style

	// Pre-computed cell styles, indexed by cellRole. Built once so the
	// canvas does not allocate a style per cell per frame.
	cells [roleCount]lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Vertex:  lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"},
		Edge:    lipgloss.AdaptiveColor{Light: "#888888", Dark: "#6272A4"},
		Target:  lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Root:    lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#6699FF"},
		Visited: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Path:    lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Marked:  lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Editing: lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Buffer:  lipgloss.AdaptiveColor{Light: "#808000", Dark: "#F1FA8C"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.cells[roleBlank] = r.NewStyle()
	t.cells[roleEdge] = r.NewStyle().Foreground(t.Edge)
	t.cells[roleWeight] = r.NewStyle().Foreground(t.Subtext).Italic(true)
	t.cells[roleVertex] = r.NewStyle().Foreground(t.Vertex).Bold(true)
	t.cells[roleVisited] = r.NewStyle().Foreground(t.Visited).Bold(true)
	t.cells[rolePathEdge] = r.NewStyle().Foreground(t.Path)
	t.cells[rolePath] = r.NewStyle().Foreground(t.Path).Bold(true)
	t.cells[roleTarget] = r.NewStyle().Foreground(t.Target).Bold(true).Underline(true)
	t.cells[roleRoot] = r.NewStyle().Foreground(t.Root).Bold(true)
	t.cells[roleBuffer] = r.NewStyle().Foreground(t.Buffer).Bold(true).Reverse(true)
	t.cells[roleMarked] = r.NewStyle().Foreground(t.Marked).Strikethrough(true)
	t.cells[roleEditing] = r.NewStyle().Foreground(t.Editing).Bold(true).Reverse(true)
	t.cells[rolePressed] = r.NewStyle().Foreground(t.Primary).Bold(true)

	return t
}

// CellStyle returns the style for a canvas cell role.
func (t Theme) CellStyle(role cellRole) lipgloss.Style {
	return t.cells[role]
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
