package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# graphsketch

## Mouse

| Gesture | Effect |
|---|---|
| Left click on empty canvas | add a vertex and make it the target |
| Left click on a vertex | make it the target (distance mode: pick an endpoint) |
| Left drag a vertex | move it |
| Left press and hold a vertex | edit its label and size |
| Right click two vertices | connect them with the default edge settings |
| Right click empty canvas | drop the pending edge selection |

## Keys

| Key | Action |
|---|---|
| b / d | breadth-first / depth-first search from the root to the target |
| s, esc | stop the running search |
| m | distance mode: click two vertices for the hop count |
| r | pin the target as search root (again to unpin) |
| x | delete mode: click to mark, enter to delete, esc to cancel |
| t / o | cycle the default edge type / direction |
| w | set the default edge weight |
| C | clear the graph (press twice) |
| y | copy the last path to the clipboard |
| i | toggle the insights panel |
| ctrl+s | save now |
| ? | toggle this help |
| q | save and quit |

The search root is the pinned vertex, or the topmost vertex when nothing is
pinned. Edges are traversed in both directions whatever their arrows show.
`

// renderHelp renders the help overlay at the given width. Glamour failures
// fall back to the raw markdown.
func renderHelp(width int) string {
	wrap := min(max(width-4, 40), 100)
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
