package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	ColorSuccessBg = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorDangerBg  = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorWarningBg = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle frames the side panels (insights, edit).
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight).
			Padding(0, 1)

	// FocusedPanelStyle frames the panel that receives keys.
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// ══════════════════════════════════════════════════════════════════════════════

// RenderModeBadge returns the header badge for the active mode, or "" when
// nothing modal is going on.
func RenderModeBadge(mode string) string {
	var fg, bg lipgloss.AdaptiveColor
	switch mode {
	case "edit":
		fg, bg = ColorPrimary, ColorBgHighlight
	case "delete":
		fg, bg = ColorDanger, ColorDangerBg
	case "distance":
		fg, bg = ColorInfo, ColorBgHighlight
	case "search":
		fg, bg = ColorSuccess, ColorSuccessBg
	default:
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(mode)
}

// RenderStatus renders the one-line status message. Errors are red, the
// rest green.
func RenderStatus(msg string, isError bool, width int) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	prefix := "✓ "
	if isError {
		style = style.Background(ColorDangerBg).Foreground(ColorDanger)
		prefix = "✗ "
	} else {
		style = style.Background(ColorSuccessBg).Foreground(ColorSuccess)
	}
	return style.Render(truncate(prefix+msg, max(width-2, 1)))
}
