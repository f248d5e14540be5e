package voice

import (
	"errors"
	"time"

	"go-midicv/clock"
	"go-midicv/debug"
	"go-midicv/state"
)

// NoNote marks a channel that has never been given a note
const NoNote = -1

// DefaultTriggerWidth is the trigger pulse length
const DefaultTriggerWidth = 2 * time.Millisecond

// Channel is the allocator's view of one physical output
type Channel struct {
	Note            int     // last note written, NoNote if none
	PitchBend       float64 // semitones applied to the pitch output
	GateOn          bool
	TriggerOn       bool
	TriggerDeadline time.Duration
	ActivatedAt     time.Duration
}

// Sounding reports whether the channel currently holds note n
func (c Channel) Sounding(n uint8) bool {
	return c.GateOn && c.Note == int(n)
}

// Allocator maps live note events onto the channel bank. Channels
// [0, LiveBudget) belong to it; the sequencer drives the rest through
// TurnOnChannel and TurnOffChannel.
type Allocator struct {
	bank    Bank
	params  *state.Params
	clock   clock.Clock
	pitch   PitchMapper
	trigger time.Duration

	channels [state.NumChannels]Channel
	history  History
	bend     float64

	writeErrors int
}

// Option configures an Allocator
type Option func(*Allocator)

func WithPitchMapper(m PitchMapper) Option {
	return func(a *Allocator) { a.pitch = m }
}

func WithTriggerWidth(d time.Duration) Option {
	return func(a *Allocator) {
		if d > 0 {
			a.trigger = d
		}
	}
}

// New creates an allocator on the given bank. params is shared with the
// sequencer and read on every call.
func New(bank Bank, params *state.Params, clk clock.Clock, opts ...Option) *Allocator {
	a := &Allocator{
		bank:    bank,
		params:  params,
		clock:   clk,
		pitch:   DefaultPitchMapper(),
		trigger: DefaultTriggerWidth,
	}
	for i := range a.channels {
		a.channels[i].Note = NoNote
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// liveBudget clamps the shared budget to the bank size
func (a *Allocator) liveBudget() int {
	n := a.params.LiveBudget
	if n < 0 {
		return 0
	}
	if n > state.NumChannels {
		return state.NumChannels
	}
	return n
}

// NoteOn assigns a live channel to note. A free channel is used first;
// otherwise the oldest still-sounding held note is stolen. With nothing to
// steal the event is dropped.
func (a *Allocator) NoteOn(note uint8) {
	if a.liveChannelFor(note) >= 0 {
		return
	}
	// stale entry from a note-on that never got its note-off
	a.history.Remove(note)

	ch := a.freeLiveChannel()
	if ch < 0 {
		var victim uint8
		ch, victim = a.oldestSounding()
		if ch < 0 {
			debug.Log("voice", "note %d dropped: no live channel", note)
			return
		}
		debug.Log("voice", "note %d steals channel %d from %d", note, ch, victim)
		a.TurnOffChannel(ch)
	}

	a.history.Push(note)
	a.TurnOnChannel(ch, note)
}

// NoteOff releases the live channel holding note. When more notes are held
// than there are live channels, the freed channel goes back to the most
// recently pressed held note that lost its channel.
func (a *Allocator) NoteOff(note uint8) {
	freed := -1
	for ch := 0; ch < a.liveBudget(); ch++ {
		if a.channels[ch].Sounding(note) {
			a.setGate(ch, false)
			if freed < 0 {
				freed = ch
			}
		}
	}
	a.history.Remove(note)

	if freed < 0 || a.history.Len() < a.liveBudget() {
		return
	}
	for i := a.history.Len() - 1; i >= 0; i-- {
		held := a.history.At(i)
		if a.liveChannelFor(held) < 0 {
			debug.Log("voice", "note %d steals back channel %d", held, freed)
			a.TurnOnChannel(freed, held)
			return
		}
	}
}

// SetPitchBend applies a bend in semitones to every live channel in one
// collective write.
func (a *Allocator) SetPitchBend(bend float64) error {
	a.bend = bend
	live := a.liveBudget()
	if live == 0 {
		return nil
	}

	writes := make([]PitchWrite, 0, live)
	for ch := 0; ch < live; ch++ {
		c := &a.channels[ch]
		c.PitchBend = bend
		if c.Note == NoNote {
			continue
		}
		writes = append(writes, PitchWrite{Channel: ch, Value: a.pitch.Value(uint8(c.Note), bend)})
	}
	if len(writes) == 0 {
		return nil
	}

	if bb, ok := a.bank.(BatchBank); ok {
		return a.record(bb.SetPitches(writes))
	}
	var errs []error
	for _, w := range writes {
		errs = append(errs, a.bank.SetPitch(w.Channel, w.Value))
	}
	return a.record(errors.Join(errs...))
}

// UpdateTriggers ends every trigger pulse whose deadline has passed. Call
// once per control loop iteration.
func (a *Allocator) UpdateTriggers(now time.Duration) {
	for ch := range a.channels {
		c := &a.channels[ch]
		if c.TriggerOn && now >= c.TriggerDeadline {
			c.TriggerOn = false
			a.record(a.bank.SetTrigger(ch, false))
		}
	}
}

// TurnOnChannel writes pitch, opens the gate and starts a trigger pulse.
// State is updated before the writes and is not rolled back on failure.
func (a *Allocator) TurnOnChannel(ch int, note uint8) error {
	if ch < 0 || ch >= state.NumChannels {
		return nil
	}
	now := a.clock.Now()
	c := &a.channels[ch]
	c.Note = int(note)
	c.PitchBend = 0
	if ch < a.liveBudget() {
		c.PitchBend = a.bend
	}
	c.GateOn = true
	c.TriggerOn = true
	c.TriggerDeadline = now + a.trigger
	c.ActivatedAt = now

	return a.record(errors.Join(
		a.bank.SetPitch(ch, a.pitch.Value(note, c.PitchBend)),
		a.bank.SetGate(ch, true),
		a.bank.SetTrigger(ch, true),
	))
}

// TurnOffChannel closes the gate and ends any trigger pulse
func (a *Allocator) TurnOffChannel(ch int) error {
	if ch < 0 || ch >= state.NumChannels {
		return nil
	}
	c := &a.channels[ch]
	c.GateOn = false
	c.TriggerOn = false
	return a.record(errors.Join(
		a.bank.SetGate(ch, false),
		a.bank.SetTrigger(ch, false),
	))
}

// CleanChannels force-releases channels [from, to) and forgets the notes
// they were sounding. Used when the live/sequencer boundary moves.
func (a *Allocator) CleanChannels(from, to int) {
	if from < 0 {
		from = 0
	}
	if to > state.NumChannels {
		to = state.NumChannels
	}
	for ch := from; ch < to; ch++ {
		c := a.channels[ch]
		if c.GateOn && c.Note != NoNote {
			a.history.Remove(uint8(c.Note))
		}
		a.TurnOffChannel(ch)
	}
}

// AllNotesOff releases every live channel and empties the history
func (a *Allocator) AllNotesOff() {
	a.CleanChannels(0, a.liveBudget())
	a.history.Clear()
}

// Panic silences the whole bank, live and sequenced
func (a *Allocator) Panic() {
	for ch := range a.channels {
		a.TurnOffChannel(ch)
	}
	a.history.Clear()
}

// Channel returns a copy of one channel's state
func (a *Allocator) Channel(ch int) Channel {
	return a.channels[ch]
}

// Channels returns a copy of the whole bank state
func (a *Allocator) Channels() [state.NumChannels]Channel {
	return a.channels
}

// History returns the held notes, oldest first
func (a *Allocator) History() []uint8 {
	return a.history.Notes()
}

func (a *Allocator) Bend() float64 {
	return a.bend
}

// WriteErrors counts failed bank writes since creation
func (a *Allocator) WriteErrors() int {
	return a.writeErrors
}

func (a *Allocator) setGate(ch int, on bool) {
	a.channels[ch].GateOn = on
	a.record(a.bank.SetGate(ch, on))
}

// liveChannelFor returns the live channel sounding note, or -1
func (a *Allocator) liveChannelFor(note uint8) int {
	for ch := 0; ch < a.liveBudget(); ch++ {
		if a.channels[ch].Sounding(note) {
			return ch
		}
	}
	return -1
}

func (a *Allocator) freeLiveChannel() int {
	for ch := 0; ch < a.liveBudget(); ch++ {
		if !a.channels[ch].GateOn {
			return ch
		}
	}
	return -1
}

// oldestSounding walks the history oldest-first and returns the first held
// note that still owns a live channel.
func (a *Allocator) oldestSounding() (int, uint8) {
	for i := 0; i < a.history.Len(); i++ {
		note := a.history.At(i)
		if ch := a.liveChannelFor(note); ch >= 0 {
			return ch, note
		}
	}
	return -1, 0
}

func (a *Allocator) record(err error) error {
	if err != nil {
		a.writeErrors++
		debug.Log("voice", "bank write failed: %v", err)
	}
	return err
}
