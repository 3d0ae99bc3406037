package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Submit      key.Binding
	CodeMode    key.Binding
	SubmitCode  key.Binding
	SwitchField key.Binding
	Question    key.Binding
	Dictate     key.Binding
	End         key.Binding
	Report      key.Binding
	Reset       key.Binding
	Quit        key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "answer"),
	),
	CodeMode: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("ctrl+e", "code editor"),
	),
	SubmitCode: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "submit code"),
	),
	SwitchField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "language/code"),
	),
	Question: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "new question"),
	),
	Dictate: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "voice"),
	),
	End: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "end interview"),
	),
	Report: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "report"),
	),
	Reset: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "new session"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}
