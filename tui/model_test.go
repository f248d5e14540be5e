package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-midicv/clock"
	"go-midicv/config"
	"go-midicv/engine"
	"go-midicv/hw"
	"go-midicv/midi"
	"go-midicv/panel"
	"go-midicv/theme"
)

func newTestModel(t *testing.T) (Model, *engine.System, *hw.MemoryBank, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual()
	bank := hw.NewMemoryBank()
	sys := engine.Build(config.DefaultConfig(), clk, bank, engine.WithIdle(0))
	return NewModel(sys, bank, theme.New(theme.Plasma())), sys, bank, clk
}

func press(m Model, s string) Model {
	var msg tea.KeyMsg
	if s == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNoteKeysToggle(t *testing.T) {
	m, sys, bank, clk := newTestModel(t)

	m = press(m, "a") // C4
	m = press(m, "e") // D#4
	sys.Engine.Step(clk.Advance(time.Millisecond))

	out := bank.Outputs()
	if !out.Gate[0] || !out.Gate[1] {
		t.Fatalf("gates %v", out.Gate)
	}
	if got := sys.Engine.Snapshot().Channels[0].Note; got != 60 {
		t.Errorf("channel 0 note %d, want 60", got)
	}

	m = press(m, "a")
	sys.Engine.Step(clk.Advance(time.Millisecond))
	if bank.Outputs().Gate[0] {
		t.Error("second press did not release C4")
	}
	if held := m.Held(); len(held) != 1 || held[0] != 63 {
		t.Errorf("held %v", held)
	}

	m = press(m, " ")
	if len(m.Held()) != 0 {
		t.Errorf("release left %v", m.Held())
	}
}

func TestOctaveKeys(t *testing.T) {
	m, sys, _, _ := newTestModel(t)
	m = press(m, "z")
	m = press(m, "k") // C one octave up from the row's start
	var evs []midi.Event
	evs = sys.Engine.MIDI().Drain(evs)
	if len(evs) != 1 || evs[0].Note() != 60 {
		t.Fatalf("events %v", evs)
	}
}

func TestPanelKeys(t *testing.T) {
	m, sys, _, _ := newTestModel(t)
	m = press(m, "2")
	m = press(m, "^")
	m = press(m, "+")
	press(m, "p")

	got := sys.Engine.Inputs().Drain(nil)
	want := []panel.Input{
		panel.ButtonInput(panel.ButtonStep, panel.Press),
		panel.ButtonInput(panel.ButtonStep, panel.Release),
		panel.ButtonInput(panel.ButtonClear, panel.Press),
		panel.ButtonInput(panel.ButtonClear, panel.Hold),
		panel.ButtonInput(panel.ButtonClear, panel.Release),
		{Kind: panel.InputTempo, Delta: tempoStep},
		{Kind: panel.InputPanic},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d inputs, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestQuitKeyStopsEngine(t *testing.T) {
	m, sys, _, clk := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("no quit command")
	}
	sys.Engine.Step(clk.Advance(time.Millisecond))
	if !sys.Engine.QuitRequested() {
		t.Error("engine not told to quit")
	}
}

func TestViewShowsLCDAndChannels(t *testing.T) {
	m, sys, _, clk := newTestModel(t)
	m = press(m, "a")
	sys.Engine.Step(clk.Advance(time.Millisecond))

	v := m.View()
	for _, want := range []string{"go-midicv", "CH1", "CH8", "C4", "held: C4"} {
		if !strings.Contains(v, want) {
			t.Errorf("view lacks %q", want)
		}
	}
}
