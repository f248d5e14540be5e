package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"go-midicv/panel"
	"go-midicv/widgets"
)

// noteKeys is one octave laid out like a piano on the home row, C first
const noteKeys = "awsedftgyhujk"

var clickKeys = [panel.NumButtons]string{"1", "2", "3", "4", "5", "6"}
var holdKeys = [panel.NumButtons]string{"!", "@", "#", "$", "%", "^"}

type keyMap struct {
	Notes      key.Binding
	OctaveDown key.Binding
	OctaveUp   key.Binding
	Click      key.Binding
	Hold       key.Binding
	TempoUp    key.Binding
	TempoDown  key.Binding
	Release    key.Binding
	Panic      key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	notes := make([]string, len(noteKeys))
	for i, r := range noteKeys {
		notes[i] = string(r)
	}
	return keyMap{
		Notes:      key.NewBinding(key.WithKeys(notes...), key.WithHelp("a..k", "toggle note")),
		OctaveDown: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "octave down")),
		OctaveUp:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "octave up")),
		Click:      key.NewBinding(key.WithKeys(clickKeys[:]...), key.WithHelp("1-6", "click layer/step/budget/rest/ratchet/clear")),
		Hold:       key.NewBinding(key.WithKeys(holdKeys[:]...), key.WithHelp("shift+1-6", "hold button")),
		TempoUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "tempo up")),
		TempoDown:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "tempo down")),
		Release:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "release held notes")),
		Panic:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "panic")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) sections() []widgets.KeySection {
	return []widgets.KeySection{
		{Title: "Keyboard", Keys: []key.Binding{k.Notes, k.OctaveDown, k.OctaveUp, k.Release}},
		{Title: "Panel", Keys: []key.Binding{k.Click, k.Hold, k.TempoUp, k.TempoDown}},
		{Keys: []key.Binding{k.Panic, k.Quit}},
	}
}

func indexOf(keys []string, s string) int {
	for i, k := range keys {
		if k == s {
			return i
		}
	}
	return -1
}
