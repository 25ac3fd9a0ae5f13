package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Form views only react to keys that cannot be typed into a field.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	upload   key.Binding
	login    key.Binding
	logout   key.Binding
	channel  key.Binding
	refresh  key.Binding
	next     key.Binding
	prev     key.Binding
	submit   key.Binding
	register key.Binding
	retry    key.Binding
	relink   key.Binding
	quit     key.Binding
	kill     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "count view")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		login:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "sign in")),
		logout:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
		channel:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "my channel")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		register: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "sign in / register")),
		retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "publish again")),
		relink:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "register only")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		kill:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.refresh},
		{k.upload, k.channel, k.login, k.logout},
		{k.back, k.quit},
	}
}
