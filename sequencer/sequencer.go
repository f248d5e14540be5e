package sequencer

import (
	"time"

	"go-midicv/clock"
	"go-midicv/debug"
	"go-midicv/state"
)

// Outputs is the part of the voice allocator the sequencer drives.
// *voice.Allocator satisfies it.
type Outputs interface {
	TurnOnChannel(ch int, note uint8) error
	TurnOffChannel(ch int) error
	CleanChannels(from, to int)
}

const (
	DefaultMinBPM = 20.0
	DefaultMaxBPM = 300.0
)

// Sequencer owns the layers and the channels above the live budget
type Sequencer struct {
	params *state.Params
	out    Outputs

	layers [NumLayers]Layer

	// channels this sequencer has turned on
	on [state.NumChannels]bool

	started       bool
	stepStartedAt time.Duration

	selected int  // step being edited, -1 if none
	fresh    bool // next key press clears the selected step

	minBPM, maxBPM float64
}

// Option configures a Sequencer
type Option func(*Sequencer)

// WithTempoRange sets the BPM clamp used by SetBPM
func WithTempoRange(min, max float64) Option {
	return func(s *Sequencer) {
		if min > 0 && max >= min {
			s.minBPM, s.maxBPM = min, max
		}
	}
}

// New creates a sequencer with every layer cleared
func New(params *state.Params, out Outputs, opts ...Option) *Sequencer {
	s := &Sequencer{
		params:   params,
		out:      out,
		selected: -1,
		minBPM:   DefaultMinBPM,
		maxBPM:   DefaultMaxBPM,
	}
	for i := range s.layers {
		s.layers[i] = newLayer()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.RecomputeLayout()
	return s
}

// Advance runs playback up to now. Call once per control loop iteration,
// after input has been processed.
func (s *Sequencer) Advance(now time.Duration) {
	if !s.started {
		s.start(now)
		return
	}
	if s.params.BPM <= 0 {
		return
	}

	spb := 60 / s.params.BPM / 4
	elapsed := clock.Seconds(now - s.stepStartedAt)

	if elapsed >= spb {
		for i := 0; i < s.activeLayers(); i++ {
			s.nextStep(&s.layers[i])
		}
		s.stepStartedAt += clock.FromSeconds(spb)
		if now-s.stepStartedAt >= clock.FromSeconds(spb) {
			// fell more than a beat behind, don't try to catch up
			s.stepStartedAt = now
		}
		return
	}

	for i := 0; i < s.activeLayers(); i++ {
		s.subdivide(&s.layers[i], elapsed, spb)
	}
}

// start restarts the beat clock and sounds every layer's current step
func (s *Sequencer) start(now time.Duration) {
	s.started = true
	s.stepStartedAt = now
	for i := 0; i < s.activeLayers(); i++ {
		s.activate(&s.layers[i])
	}
}

func (s *Sequencer) activeLayers() int {
	n := s.params.MaxLayer
	if n > NumLayers {
		return NumLayers
	}
	if n < 0 {
		return 0
	}
	return n
}

func (s *Sequencer) nextStep(l *Layer) {
	cur := &l.Steps[l.CurrentStep]
	cur.closeOut()
	if !cur.Tie {
		s.release(l)
	}

	next := (l.CurrentStep + 1) % NumSteps
	if l.Steps[next].IsReset() {
		next = 0
	}
	l.CurrentStep = next
	s.activate(l)
}

// activate sounds the layer's current step as its first pulse
func (s *Sequencer) activate(l *Layer) {
	st := &l.Steps[l.CurrentStep]
	st.closeOut()
	if !st.Sounds() {
		s.release(l)
		return
	}
	s.sound(l, st)
	st.enableCount = 1
}

// sound turns on the step's notes and turns off the rest of the layer's
// range. Stops at the first slot that is not a note.
func (s *Sequencer) sound(l *Layer, st *Step) {
	i := 0
	for ; i < l.VoicesUsed; i++ {
		slot := st.Slots[i]
		if !slot.IsNote() {
			break
		}
		s.turnOn(l.StartChannel+i, slot.Note)
	}
	for ; i < l.VoicesUsed; i++ {
		s.turnOff(l.StartChannel + i)
	}
}

// subdivide handles ratchet pulses inside a step. Pulses and gate-offs
// are processed in time order.
func (s *Sequencer) subdivide(l *Layer, elapsed, spb float64) {
	st := &l.Steps[l.CurrentStep]
	div := st.divisions()
	if div <= 1 || !st.Sounds() || st.enableCount == 0 {
		return
	}
	spd := spb / float64(div)

	for {
		nextOn := float64(st.enableCount) * spd
		nextOff := (float64(st.disableCount) + 0.5) * spd
		onDue := st.enableCount < div && elapsed >= nextOn
		offDue := st.disableCount < st.enableCount && elapsed >= nextOff

		switch {
		case offDue && (!onDue || nextOff <= nextOn):
			if !(st.Tie && st.enableCount == div) {
				s.release(l)
			}
			st.disableCount++
		case onDue:
			s.sound(l, st)
			st.enableCount++
		default:
			return
		}
	}
}

// release turns off every channel of the layer the sequencer holds on
func (s *Sequencer) release(l *Layer) {
	for ch := l.StartChannel; ch < l.StartChannel+l.VoicesUsed; ch++ {
		s.turnOff(ch)
	}
}

func (s *Sequencer) turnOn(ch int, note uint8) {
	if ch < s.params.LiveBudget || ch >= state.NumChannels {
		return
	}
	s.on[ch] = true
	s.out.TurnOnChannel(ch, note)
}

func (s *Sequencer) turnOff(ch int) {
	if ch < 0 || ch >= state.NumChannels || !s.on[ch] {
		return
	}
	s.on[ch] = false
	s.out.TurnOffChannel(ch)
}

// Silenced records that every channel was switched off underneath the
// sequencer, e.g. by a panic. Held steps sound again on their next pulse.
func (s *Sequencer) Silenced() {
	s.on = [state.NumChannels]bool{}
}

// Holding reports whether the sequencer has channel ch turned on
func (s *Sequencer) Holding(ch int) bool {
	return ch >= 0 && ch < state.NumChannels && s.on[ch]
}

// RecomputeLayout resizes every layer from its steps and partitions the
// channels above the live budget among them in order. The layer that
// crosses the end of the bank is clamped and becomes the last active one.
func (s *Sequencer) RecomputeLayout() {
	var oldStart, oldVoices [NumLayers]int
	oldActive := s.activeLayers()
	for i := range s.layers {
		oldStart[i] = s.layers[i].StartChannel
		oldVoices[i] = s.layers[i].VoicesUsed
		s.layers[i].RecomputeVoicesUsed()
	}

	total := s.params.LiveBudget
	maxLayer := 0
	for i := range s.layers {
		l := &s.layers[i]
		l.StartChannel = total
		if total >= state.NumChannels {
			l.StartChannel = state.NumChannels
			l.VoicesUsed = 0
			continue
		}
		maxLayer = i + 1
		if total+l.VoicesUsed > state.NumChannels {
			debug.Log("sequencer", "layer %d clamped from %d to %d voices", i+1, l.VoicesUsed, state.NumChannels-total)
			l.VoicesUsed = state.NumChannels - total
		}
		total += l.VoicesUsed
	}
	s.params.MaxLayer = maxLayer
	if s.params.CurrentLayer > maxLayer {
		s.params.CurrentLayer = maxLayer
	}

	// a sounding channel survives only if its layer kept the same slot for it
	for ch := range s.on {
		if !s.on[ch] {
			continue
		}
		keep := false
		for i := 0; i < oldActive && i < maxLayer; i++ {
			if ch < oldStart[i] || ch >= oldStart[i]+oldVoices[i] {
				continue
			}
			l := &s.layers[i]
			keep = l.StartChannel == oldStart[i] && l.Owns(ch)
			break
		}
		if !keep {
			s.turnOff(ch)
		}
	}
}

// RecomputeVoicesUsed resizes one layer (1-based) and re-runs the layout
func (s *Sequencer) RecomputeVoicesUsed(layer int) {
	if layer < 1 || layer > NumLayers {
		return
	}
	s.layers[layer-1].RecomputeVoicesUsed()
	s.RecomputeLayout()
}

// SetLiveBudget moves the live/sequencer boundary. Channels changing
// owner are released first.
func (s *Sequencer) SetLiveBudget(n int) {
	if n < 0 {
		n = 0
	}
	if n > state.NumChannels {
		n = state.NumChannels
	}
	old := s.params.LiveBudget
	if n == old {
		return
	}
	if n > old {
		for ch := old; ch < n; ch++ {
			s.turnOff(ch)
		}
	} else {
		s.out.CleanChannels(n, old)
	}
	s.params.LiveBudget = n
	s.RecomputeLayout()
}

// SetBPM clamps bpm into the tempo range
func (s *Sequencer) SetBPM(bpm float64) {
	if bpm < s.minBPM {
		bpm = s.minBPM
	}
	if bpm > s.maxBPM {
		bpm = s.maxBPM
	}
	s.params.BPM = bpm
}

// Layer returns a copy of layer i (1-based)
func (s *Sequencer) Layer(i int) Layer {
	if i < 1 || i > NumLayers {
		return Layer{}
	}
	return s.layers[i-1]
}

// Layers returns a copy of every layer
func (s *Sequencer) Layers() [NumLayers]Layer {
	return s.layers
}

// Owner returns the 1-based layer owning channel ch, or 0 for the live
// range and unused channels.
func (s *Sequencer) Owner(ch int) int {
	if ch < s.params.LiveBudget {
		return 0
	}
	for i := 0; i < s.activeLayers(); i++ {
		if s.layers[i].Owns(ch) {
			return i + 1
		}
	}
	return 0
}
