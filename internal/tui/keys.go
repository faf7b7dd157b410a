package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Selection, or nudging while a gesture is active
	Left     key.Binding
	Right    key.Binding
	FarLeft  key.Binding
	FarRight key.Binding

	// Gestures
	TrimStart   key.Binding
	TrimEnd     key.Binding
	MoveOverlay key.Binding
	Commit      key.Binding
	Cancel      key.Binding

	// View
	ZoomIn        key.Binding
	ZoomOut       key.Binding
	ToggleOverlay key.Binding

	// Actions
	Jump       key.Binding
	Import     key.Binding
	AddOverlay key.Binding
	Remove     key.Binding
	Preview    key.Binding
	Regenerate key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous / nudge"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next / nudge"),
		),
		FarLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "scroll / nudge x10"),
		),
		FarRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "scroll / nudge x10"),
		),
		TrimStart: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "trim start"),
		),
		TrimEnd: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "trim end"),
		),
		MoveOverlay: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "move overlay"),
		),
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "commit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "zoom out"),
		),
		ToggleOverlay: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "toggle overlays"),
		),
		Jump: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "jump to span"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import"),
		),
		AddOverlay: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add overlay"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove span"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview in player"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "regenerate assets"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
