package panel

import (
	"fmt"
	"strings"
	"time"

	"go-midicv/debug"
	"go-midicv/sequencer"
	"go-midicv/state"
)

const (
	DefaultMessageTime = 1500 * time.Millisecond
	DefaultExitHold    = 5 * time.Second
)

// Panel maps button actions onto parameter changes and sequencer edits
// and keeps the display's status lines current.
type Panel struct {
	seq     *sequencer.Sequencer
	params  *state.Params
	display Display

	messageTime time.Duration
	exitHold    time.Duration

	down       [NumButtons]bool
	comboSince time.Duration
	combo      bool
	quit       bool
}

// Option configures a Panel
type Option func(*Panel)

// WithExitHold sets how long Layer and Step must be held to quit
func WithExitHold(d time.Duration) Option {
	return func(p *Panel) {
		if d > 0 {
			p.exitHold = d
		}
	}
}

func WithMessageTime(d time.Duration) Option {
	return func(p *Panel) {
		if d > 0 {
			p.messageTime = d
		}
	}
}

func New(seq *sequencer.Sequencer, params *state.Params, display Display, opts ...Option) *Panel {
	p := &Panel{
		seq:         seq,
		params:      params,
		display:     display,
		messageTime: DefaultMessageTime,
		exitHold:    DefaultExitHold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle applies one button input
func (p *Panel) Handle(in Input, now time.Duration) {
	if in.Kind != InputButton || in.Button < 0 || in.Button >= NumButtons {
		return
	}
	switch in.Action {
	case Press:
		p.down[in.Button] = true
		p.click(in.Button)
	case Hold:
		p.hold(in.Button)
	case Release:
		p.down[in.Button] = false
	}
	p.trackCombo(now)
}

// Tick checks the two-button exit. Call every iteration.
func (p *Panel) Tick(now time.Duration) {
	p.trackCombo(now)
	if p.combo && !p.quit && now-p.comboSince >= p.exitHold {
		p.quit = true
		p.display.ShowPersistentStatus("Exiting...")
		debug.Info("panel", "exit requested from front panel")
	}
}

// QuitRequested reports the two-button exit fired
func (p *Panel) QuitRequested() bool {
	return p.quit
}

func (p *Panel) trackCombo(now time.Duration) {
	both := p.down[ButtonLayer] && p.down[ButtonStep]
	if both && !p.combo {
		p.comboSince = now
	}
	p.combo = both
}

func (p *Panel) click(b Button) {
	step := p.seq.SelectedStep()
	switch b {
	case ButtonLayer:
		p.params.CurrentLayer = (p.params.CurrentLayer + 1) % (p.params.MaxLayer + 1)
		p.seq.Deselect()
		if p.params.CurrentLayer == 0 {
			p.message("Live")
		} else {
			p.message(fmt.Sprintf("Layer %d", p.params.CurrentLayer))
		}
	case ButtonStep:
		if p.params.CurrentLayer == 0 {
			p.message("Pick a layer")
			return
		}
		p.seq.SelectStep((step + 1) % sequencer.NumSteps)
		p.message(fmt.Sprintf("Step %d", p.seq.SelectedStep()+1))
	case ButtonBudget:
		p.seq.SetLiveBudget((p.params.LiveBudget + 1) % (state.NumChannels + 1))
		p.message(fmt.Sprintf("Live voices %d", p.params.LiveBudget))
	case ButtonRest:
		if p.seq.SetRest(step) {
			p.message("Rest")
		}
	case ButtonRatchet:
		if p.seq.CycleRatchet(step) {
			l := p.seq.Layer(p.params.CurrentLayer)
			p.message(fmt.Sprintf("Ratchet x%d", l.Steps[step].Ratchets))
		}
	}
}

func (p *Panel) hold(b Button) {
	step := p.seq.SelectedStep()
	switch b {
	case ButtonLayer:
		p.seq.SyncLayers()
		p.message("Sync")
	case ButtonStep:
		p.seq.Deselect()
		p.message("Done")
	case ButtonRest:
		if p.seq.SetReset(step) {
			p.message("End of pattern")
		}
	case ButtonRatchet:
		if p.seq.ToggleTie(step) {
			if p.seq.Layer(p.params.CurrentLayer).Steps[step].Tie {
				p.message("Tie on")
			} else {
				p.message("Tie off")
			}
		}
	case ButtonClear:
		p.seq.ResetAll()
		p.message("Cleared")
	}
}

// NoteEntered confirms a key written into the selected step
func (p *Panel) NoteEntered(note uint8) {
	p.message("+" + sequencer.NoteName(note))
}

func (p *Panel) message(text string) {
	p.display.ShowTimedMessage(text, p.messageTime)
}

// Refresh rewrites the status lines from the current state. gates is the
// gate level of every channel.
func (p *Panel) Refresh(gates [state.NumChannels]bool) {
	if p.quit {
		return
	}
	p.display.ShowPersistentStatus(p.StatusLine() + "\n" + p.detailLine(gates))
}

// StatusLine is the first status row: layer, live budget, tempo
func (p *Panel) StatusLine() string {
	layer := "L-"
	if p.params.CurrentLayer > 0 {
		layer = fmt.Sprintf("L%d", p.params.CurrentLayer)
	}
	return fmt.Sprintf("%s/%d B%d %3.0f", layer, p.params.MaxLayer, p.params.LiveBudget, p.params.BPM)
}

func (p *Panel) detailLine(gates [state.NumChannels]bool) string {
	if p.seq.IsAcceptingInput() {
		step := p.seq.SelectedStep()
		st := p.seq.Layer(p.params.CurrentLayer).Steps[step]
		tie := " "
		if st.Tie {
			tie = "T"
		}
		return fmt.Sprintf("S%02d R%d %s %s", step+1, st.Ratchets, tie, st.Slots[0])
	}
	return "CH " + GateMap(gates, p.params.LiveBudget, p.seq.Owner)
}

// GateMap draws one character per channel: live channels as o/. and
// sequencer channels as their layer number or -.
func GateMap(gates [state.NumChannels]bool, live int, owner func(int) int) string {
	var b strings.Builder
	for ch, on := range gates {
		switch {
		case ch < live && on:
			b.WriteByte('o')
		case ch < live:
			b.WriteByte('.')
		case on && owner(ch) > 0:
			b.WriteString(fmt.Sprint(owner(ch)))
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
