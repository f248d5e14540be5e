package engine

import (
	"context"
	"sync"
	"time"

	"go-midicv/clock"
	"go-midicv/debug"
	"go-midicv/midi"
	"go-midicv/panel"
	"go-midicv/sequencer"
	"go-midicv/state"
	"go-midicv/voice"
)

const (
	DefaultIdle         = 100 * time.Microsecond
	DefaultPublishEvery = 16 * time.Millisecond
	DefaultBendRange    = 2.0
)

// TempoSource reads the tempo control. Called once per iteration;
// implementations rate-limit slow hardware themselves.
type TempoSource interface {
	BPM(now time.Duration) (float64, error)
}

// Engine is the control loop. Everything that owns channels runs on the
// goroutine calling Step or Run; other goroutines talk to it through the
// MIDI and input queues and read it through Snapshot.
type Engine struct {
	clock  clock.Clock
	params *state.Params
	alloc  *voice.Allocator
	seq    *sequencer.Sequencer
	panel  *panel.Panel

	midiQ   *midi.Queue
	inputs  *panel.InputQueue
	buttons panel.Buttons
	tempo   TempoSource

	channel   int // 1-16, 0 = omni
	bendRange float64
	idle      time.Duration

	publishEvery time.Duration
	lastPublish  time.Duration
	published    bool

	events     []midi.Event
	pending    []panel.Input
	iterations uint64
	tempoErrs  int
	quit       bool

	mu   sync.Mutex
	snap Snapshot
}

// Option configures an Engine
type Option func(*Engine)

func WithMIDIQueue(q *midi.Queue) Option {
	return func(e *Engine) { e.midiQ = q }
}

func WithInputQueue(q *panel.InputQueue) Option {
	return func(e *Engine) { e.inputs = q }
}

// WithButtons polls hardware buttons every iteration
func WithButtons(b panel.Buttons) Option {
	return func(e *Engine) { e.buttons = b }
}

func WithTempo(t TempoSource) Option {
	return func(e *Engine) { e.tempo = t }
}

// WithChannel accepts MIDI only on channel 1-16; 0 accepts all
func WithChannel(ch int) Option {
	return func(e *Engine) {
		if ch >= 0 && ch <= 16 {
			e.channel = ch
		}
	}
}

// WithBendRange sets the pitch bend range in semitones
func WithBendRange(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.bendRange = r
		}
	}
}

func WithIdle(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.idle = d
		}
	}
}

func WithPublishEvery(d time.Duration) Option {
	return func(e *Engine) { e.publishEvery = d }
}

func New(clk clock.Clock, params *state.Params, alloc *voice.Allocator, seq *sequencer.Sequencer, pnl *panel.Panel, opts ...Option) *Engine {
	e := &Engine{
		clock:        clk,
		params:       params,
		alloc:        alloc,
		seq:          seq,
		panel:        pnl,
		bendRange:    DefaultBendRange,
		idle:         DefaultIdle,
		publishEvery: DefaultPublishEvery,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.midiQ == nil {
		e.midiQ = midi.NewQueue()
	}
	if e.inputs == nil {
		e.inputs = panel.NewInputQueue()
	}
	return e
}

// MIDI is the queue MIDI sources push into
func (e *Engine) MIDI() *midi.Queue {
	return e.midiQ
}

// Inputs is the queue for UI requests from other goroutines
func (e *Engine) Inputs() *panel.InputQueue {
	return e.inputs
}

// Step runs one control loop iteration: MIDI, panel input, tempo,
// sequencer playback, trigger expiry.
func (e *Engine) Step(now time.Duration) {
	e.iterations++

	e.events = e.midiQ.Drain(e.events[:0])
	for _, ev := range e.events {
		e.dispatch(ev)
	}

	e.pending = e.inputs.Drain(e.pending[:0])
	if e.buttons != nil {
		e.pending = append(e.pending, e.buttons.Poll(now)...)
	}
	for _, in := range e.pending {
		e.handle(in, now)
	}
	e.panel.Tick(now)
	if e.panel.QuitRequested() {
		e.quit = true
	}

	if e.tempo != nil {
		bpm, err := e.tempo.BPM(now)
		if err != nil {
			e.tempoErrs++
			debug.LogEvery(1000, "engine", "tempo read failed: %v", err)
		} else {
			e.seq.SetBPM(bpm)
		}
	}

	e.seq.Advance(now)
	e.alloc.UpdateTriggers(now)

	if !e.published || now-e.lastPublish >= e.publishEvery || len(e.events) > 0 || len(e.pending) > 0 {
		e.publish(now)
	}
}

// Run loops until ctx is done or the panel asks to quit, then silences
// every channel.
func (e *Engine) Run(ctx context.Context) error {
	debug.Info("engine", "control loop started", "live", e.params.LiveBudget, "bpm", e.params.BPM)
	defer e.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		e.Step(e.clock.Now())
		if e.quit {
			return nil
		}
		if e.idle > 0 {
			time.Sleep(e.idle)
		}
	}
}

// QuitRequested reports a quit from the panel or the input queue
func (e *Engine) QuitRequested() bool {
	return e.quit
}

func (e *Engine) shutdown() {
	e.silence()
	e.publish(e.clock.Now())
	debug.Info("engine", "control loop stopped", "iterations", e.iterations, "write_errors", e.alloc.WriteErrors())
}

func (e *Engine) silence() {
	e.alloc.Panic()
	e.seq.Silenced()
}

func (e *Engine) dispatch(ev midi.Event) {
	if e.channel != 0 && int(ev.Channel())+1 != e.channel {
		return
	}
	switch ev.Kind() {
	case midi.KindNoteOn:
		if e.seq.IsAcceptingInput() {
			if e.seq.PressKey(ev.Note()) {
				e.panel.NoteEntered(ev.Note())
			}
			return
		}
		e.alloc.NoteOn(ev.Note())
	case midi.KindNoteOff:
		e.alloc.NoteOff(ev.Note())
	case midi.KindPitchBend:
		e.alloc.SetPitchBend(ev.BendSemitones(e.bendRange))
	case midi.KindAllNotesOff:
		e.alloc.AllNotesOff()
	}
}

func (e *Engine) handle(in panel.Input, now time.Duration) {
	switch in.Kind {
	case panel.InputButton:
		e.panel.Handle(in, now)
	case panel.InputPanic:
		debug.Info("engine", "panic: all channels off")
		e.silence()
	case panel.InputTempo:
		e.seq.SetBPM(e.params.BPM + in.Delta)
	case panel.InputQuit:
		e.quit = true
	}
}
