package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-midicv/engine"
	"go-midicv/hw"
	"go-midicv/midi"
	"go-midicv/panel"
	"go-midicv/sequencer"
	"go-midicv/state"
	"go-midicv/theme"
	"go-midicv/widgets"
)

const (
	frameRate   = 30
	tempoStep   = 5.0
	keyVelocity = 100
)

type Model struct {
	sys     *engine.System
	bank    *hw.MemoryBank
	Theme   *theme.Theme
	keys    keyMap
	channel uint8 // MIDI channel the keyboard plays on, 0-based

	octave   int
	held     map[uint8]bool
	source   string
	status   string
	done     <-chan struct{}
	watcher  *midi.Watcher
	quitting bool
}

// Option configures a Model
type Option func(*Model)

// WithWatcher shows hot-plug events from w
func WithWatcher(w *midi.Watcher) Option {
	return func(m *Model) { m.watcher = w }
}

// WithSource names the MIDI input in the header
func WithSource(name string) Option {
	return func(m *Model) { m.source = name }
}

// WithDone ends the program when the control loop stops on its own
func WithDone(done <-chan struct{}) Option {
	return func(m *Model) { m.done = done }
}

// WithChannel sets the 1-16 MIDI channel the computer keyboard sends on
func WithChannel(ch int) Option {
	return func(m *Model) {
		if ch >= 1 && ch <= 16 {
			m.channel = uint8(ch - 1)
		}
	}
}

// WithOctave sets the keyboard's starting octave, C4 = middle C
func WithOctave(o int) Option {
	return func(m *Model) { m.octave = o }
}

func NewModel(sys *engine.System, bank *hw.MemoryBank, th *theme.Theme, opts ...Option) Model {
	m := Model{
		sys:    sys,
		bank:   bank,
		Theme:  th,
		keys:   defaultKeyMap(),
		octave: 4,
		held:   map[uint8]bool{},
		source: "keyboard",
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

type frameMsg time.Time

type DeviceEventMsg midi.DeviceEvent

type engineDoneMsg struct{}

func nextFrame() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func ListenForDevices(w *midi.Watcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-w.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func waitDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return engineDoneMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{nextFrame()}
	if m.watcher != nil {
		cmds = append(cmds, ListenForDevices(m.watcher))
	}
	if m.done != nil {
		cmds = append(cmds, waitDone(m.done))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	eng := m.sys.Engine
	switch msg := msg.(type) {
	case tea.KeyMsg:
		s := msg.String()
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			eng.Inputs().Push(panel.Input{Kind: panel.InputQuit})
			return m, tea.Quit

		case key.Matches(msg, m.keys.Notes):
			m.toggle(m.noteFor(strings.IndexRune(noteKeys, msg.Runes[0])))

		case key.Matches(msg, m.keys.OctaveDown):
			if m.octave > 0 {
				m.octave--
			}

		case key.Matches(msg, m.keys.OctaveUp):
			if m.octave < 8 {
				m.octave++
			}

		case key.Matches(msg, m.keys.Click):
			eng.Inputs().Click(panel.Button(indexOf(clickKeys[:], s)))

		case key.Matches(msg, m.keys.Hold):
			eng.Inputs().LongPress(panel.Button(indexOf(holdKeys[:], s)))

		case key.Matches(msg, m.keys.TempoUp):
			eng.Inputs().Push(panel.Input{Kind: panel.InputTempo, Delta: tempoStep})

		case key.Matches(msg, m.keys.TempoDown):
			eng.Inputs().Push(panel.Input{Kind: panel.InputTempo, Delta: -tempoStep})

		case key.Matches(msg, m.keys.Release):
			m.releaseAll()

		case key.Matches(msg, m.keys.Panic):
			m.held = map[uint8]bool{}
			eng.Inputs().Push(panel.Input{Kind: panel.InputPanic})
		}

	case frameMsg:
		return m, nextFrame()

	case DeviceEventMsg:
		if msg.Type == midi.DeviceConnected {
			m.source = msg.Name
			m.status = "connected " + msg.Name
		} else {
			m.status = "disconnected " + msg.Name
			m.sys.Engine.Inputs().Push(panel.Input{Kind: panel.InputPanic})
		}
		return m, ListenForDevices(m.watcher)

	case engineDoneMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// noteFor maps a key index within the octave row to a MIDI note
func (m Model) noteFor(i int) uint8 {
	n := (m.octave+1)*12 + i
	if n < 0 {
		n = 0
	}
	if n > 127 {
		n = 127
	}
	return uint8(n)
}

// toggle stands in for key up/down: a terminal only reports presses
func (m *Model) toggle(note uint8) {
	var msg gomidi.Message
	if m.held[note] {
		delete(m.held, note)
		msg = gomidi.NoteOff(m.channel, note)
	} else {
		m.held[note] = true
		msg = gomidi.NoteOn(m.channel, note, keyVelocity)
	}
	if ev, ok := midi.FromMessage(msg); ok {
		m.sys.Engine.MIDI().Push(ev)
	}
}

func (m *Model) releaseAll() {
	for note := range m.held {
		m.toggle(note)
	}
}

// Held returns the notes toggled on from the keyboard, ascending
func (m Model) Held() []uint8 {
	notes := make([]uint8, 0, len(m.held))
	for n := range m.held {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i] < notes[j] })
	return notes
}

func (m Model) channelViews(snap engine.Snapshot) []widgets.ChannelView {
	var out hw.Outputs
	if m.bank != nil {
		out = m.bank.Outputs()
	}
	views := make([]widgets.ChannelView, state.NumChannels)
	for ch := range views {
		c := snap.Channels[ch]
		views[ch] = widgets.ChannelView{
			Index:   ch,
			Note:    c.Note,
			Pitch:   out.Pitch[ch],
			Gate:    c.GateOn,
			Trigger: c.TriggerOn,
			Owner:   snap.Owners[ch],
			Live:    ch < snap.Params.LiveBudget,
		}
	}
	return views
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	th := m.Theme
	snap := m.sys.Engine.Snapshot()
	p := snap.Params

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	header := headerStyle.Render(fmt.Sprintf("go-midicv  %3.0fbpm  live:%d  layers:%d  in:%s  oct:%d",
		p.BPM, p.LiveBudget, p.MaxLayer, m.source, m.octave))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderLCD(m.sys.Display.Lines(), th))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderChannels(m.channelViews(snap), th))
	out.WriteString("\n\n")

	if l := snap.CurrentLayer(); l != nil {
		out.WriteString(headerStyle.Render(fmt.Sprintf("Layer %d  len %d", p.CurrentLayer, l.PatternLength())))
		out.WriteString("\n")
		out.WriteString(widgets.RenderStepGrid(l, snap.Selected, th))
		if snap.Selected >= 0 && snap.Selected < sequencer.NumSteps {
			out.WriteString("\n")
			out.WriteString(dimStyle.Render(fmt.Sprintf("S%02d: %s", snap.Selected+1, widgets.StepDetail(&l.Steps[snap.Selected]))))
		}
		out.WriteString("\n\n")
	}

	if held := m.Held(); len(held) > 0 {
		names := make([]string, len(held))
		for i, n := range held {
			names[i] = sequencer.NoteName(n)
		}
		out.WriteString(dimStyle.Render("held: " + strings.Join(names, " ")))
		out.WriteString("\n")
	}
	if m.status != "" {
		out.WriteString(dimStyle.Render(m.status))
		out.WriteString("\n")
	}
	if snap.WriteErrors > 0 {
		out.WriteString(warnStyle.Render(fmt.Sprintf("bank write errors: %d", snap.WriteErrors)))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(m.keys.sections())))
	return out.String()
}
