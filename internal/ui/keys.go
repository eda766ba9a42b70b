package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Select      key.Binding
	SelectAll   key.Binding
	Delete      key.Binding
	Scan        key.Binding
	Sort        key.Binding
	Search      key.Binding
	ExtFilter   key.Binding
	ClearFilter key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last"),
		),
		Select: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all/none"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete selected"),
		),
		Scan: key.NewBinding(
			key.WithKeys("s", "r"),
			key.WithHelp("s/r", "rescan"),
		),
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "order"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ExtFilter: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "same extension"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filters"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Select, keys.SelectAll, keys.Delete, keys.Scan, keys.Search, keys.Sort, keys.Help, keys.Quit}
}

func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.Top, keys.Bottom},
		{keys.Select, keys.SelectAll, keys.Delete, keys.Confirm, keys.Cancel},
		{keys.Scan, keys.Sort, keys.Search, keys.ExtFilter, keys.ClearFilter},
		{keys.Help, keys.Quit},
	}
}

// contextHelp narrows the footer to the keys that do something right now.
func (keys KeyMap) contextHelp(model Model) []key.Binding {
	switch {
	case model.confirming:
		return []key.Binding{keys.Confirm, keys.Cancel}
	case model.filterInputMode != "":
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	case model.scanning || model.deleting:
		return []key.Binding{key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")), keys.Quit}
	default:
		return keys.ShortHelp()
	}
}
