package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the terminal shell.
type KeyMap struct {
	NextRoute key.Binding
	PrevRoute key.Binding

	// Settings screen theme picker.
	Up    key.Binding
	Down  key.Binding
	Apply key.Binding

	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	NextRoute: key.NewBinding(
		key.WithKeys("tab", "l", "right"),
		key.WithHelp("tab", "next screen"),
	),
	PrevRoute: key.NewBinding(
		key.WithKeys("shift+tab", "h", "left"),
		key.WithHelp("shift+tab", "prev screen"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Apply: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply theme"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "re-check session"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextRoute, k.Refresh, k.Quit}
}
