package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	next    key.Binding
	signup  key.Binding
	country key.Binding
	topic   key.Binding
	apply   key.Binding
	fetch   key.Binding
	play    key.Binding
	stop    key.Binding
	reload  key.Binding
	dismiss key.Binding
	logout  key.Binding
	quit    key.Binding
	exit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:    key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		signup:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "sign up")),
		country: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "country")),
		topic:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "topic")),
		apply:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "apply")),
		fetch:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fetch")),
		play:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
		stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		logout:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "logout")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		exit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.country, k.topic, k.apply},
		{k.fetch, k.play, k.stop},
		{k.reload, k.dismiss, k.logout, k.quit},
	}
}
