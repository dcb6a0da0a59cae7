package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Back          key.Binding
	Trash         key.Binding
	Spam          key.Binding
	Filter        key.Binding
	Unsubscribe   key.Binding
	Rescan        key.Binding
	Search        key.Binding
	Tab           key.Binding
	Age           key.Binding
	SwitchAccount key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	Up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Trash:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "trash")),
	Spam:          key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "spam")),
	Filter:        key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Unsubscribe:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unsubscribe")),
	Rescan:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
	Search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Tab:           key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "senders/domains")),
	Age:           key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "age filter")),
	SwitchAccount: key.NewBinding(key.WithKeys("@"), key.WithHelp("@", "account")),
	Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
