package engine

import (
	"time"

	"go-midicv/sequencer"
	"go-midicv/state"
	"go-midicv/voice"
)

// Snapshot is a copy of the engine state for readers on other goroutines
type Snapshot struct {
	At          time.Duration
	Params      state.Params
	Channels    [state.NumChannels]voice.Channel
	Owners      [state.NumChannels]int // 0 = live or unused, else layer number
	Layers      [sequencer.NumLayers]sequencer.Layer
	Selected    int
	Editing     bool
	Held        []uint8
	Bend        float64
	WriteErrors int
	MIDIEvents  uint64
	Iterations  uint64
}

// Gates returns the gate level of every channel
func (s Snapshot) Gates() [state.NumChannels]bool {
	var g [state.NumChannels]bool
	for i, c := range s.Channels {
		g[i] = c.GateOn
	}
	return g
}

// CurrentLayer returns the layer in view, nil in the live view
func (s Snapshot) CurrentLayer() *sequencer.Layer {
	i := s.Params.CurrentLayer
	if i < 1 || i > len(s.Layers) {
		return nil
	}
	return &s.Layers[i-1]
}

func (e *Engine) publish(now time.Duration) {
	snap := Snapshot{
		At:          now,
		Params:      *e.params,
		Channels:    e.alloc.Channels(),
		Layers:      e.seq.Layers(),
		Selected:    e.seq.SelectedStep(),
		Editing:     e.seq.IsAcceptingInput(),
		Held:        e.alloc.History(),
		Bend:        e.alloc.Bend(),
		WriteErrors: e.alloc.WriteErrors(),
		MIDIEvents:  e.midiQ.Total(),
		Iterations:  e.iterations,
	}
	for ch := range snap.Owners {
		snap.Owners[ch] = e.seq.Owner(ch)
	}
	e.panel.Refresh(snap.Gates())

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	e.lastPublish = now
	e.published = true
}

// Snapshot returns the most recently published state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}
