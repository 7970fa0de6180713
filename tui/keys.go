package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings shared across the role views.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextTab   key.Binding
	Select    key.Binding
	Refresh   key.Binding
	Book      key.Binding
	Advance   key.Binding
	Fail      key.Binding
	Assign    key.Binding
	Delete    key.Binding
	ExportCSV key.Binding
	ExportPDF key.Binding
	Back      key.Binding
	Logout    key.Binding
	Quit      key.Binding
}

// DefaultKeyMap is the standard binding set.
var DefaultKeyMap = KeyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Book:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "book parcel")),
	Advance:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "advance status")),
	Fail:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "mark failed")),
	Assign:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "assign agent")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete user")),
	ExportCSV: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),
	ExportPDF: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export pdf")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Logout:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logout")),
	Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
}
