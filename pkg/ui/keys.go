package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the canvas bindings. It implements help.KeyMap for the
// footer hint line.
type keyMap struct {
	BFS       key.Binding
	DFS       key.Binding
	Stop      key.Binding
	Distance  key.Binding
	PinRoot   key.Binding
	Delete    key.Binding
	Commit    key.Binding
	EdgeType  key.Binding
	Direction key.Binding
	Weight    key.Binding
	Clear     key.Binding
	Copy      key.Binding
	Save      key.Binding
	Insights  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		BFS:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bfs")),
		DFS:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dfs")),
		Stop:      key.NewBinding(key.WithKeys("s", "esc"), key.WithHelp("s/esc", "stop")),
		Distance:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "distance")),
		PinRoot:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "pin root")),
		Delete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete mode")),
		Commit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "delete marked")),
		EdgeType:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "edge type")),
		Direction: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "direction")),
		Weight:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "weight")),
		Clear:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "save")),
		Insights:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insights")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp is the footer line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.BFS, k.DFS, k.Distance, k.PinRoot, k.Delete, k.EdgeType, k.Direction, k.Help, k.Quit}
}

// FullHelp groups every binding by concern.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.BFS, k.DFS, k.Stop, k.Distance, k.PinRoot},
		{k.Delete, k.Commit, k.Clear},
		{k.EdgeType, k.Direction, k.Weight},
		{k.Copy, k.Save, k.Insights, k.Help, k.Quit},
	}
}

// deleteModeKeys is the footer while bulk delete is active.
func (k keyMap) deleteModeKeys() []key.Binding {
	return []key.Binding{
		k.Commit,
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
