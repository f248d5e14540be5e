package hw

import (
	"sync"

	"go-midicv/state"
	"go-midicv/voice"
)

// MemoryBank is a channel bank with no hardware behind it. The simulator
// drives it and the TUI reads it back.
type MemoryBank struct {
	mu      sync.Mutex
	pitch   [state.NumChannels]uint16
	gate    [state.NumChannels]bool
	trigger [state.NumChannels]bool
	writes  int
	fail    error
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{}
}

// Outputs is the bank's output state
type Outputs struct {
	Pitch   [state.NumChannels]uint16
	Gate    [state.NumChannels]bool
	Trigger [state.NumChannels]bool
	Writes  int
}

func (m *MemoryBank) Outputs() Outputs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Outputs{Pitch: m.pitch, Gate: m.gate, Trigger: m.trigger, Writes: m.writes}
}

// FailWith makes every later write return err; nil restores writes
func (m *MemoryBank) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *MemoryBank) apply(ch int, f func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if ch < 0 || ch >= state.NumChannels {
		return nil
	}
	f()
	m.writes++
	return nil
}

func (m *MemoryBank) SetPitch(ch int, v uint16) error {
	return m.apply(ch, func() { m.pitch[ch] = v })
}

func (m *MemoryBank) SetGate(ch int, on bool) error {
	return m.apply(ch, func() { m.gate[ch] = on })
}

func (m *MemoryBank) SetTrigger(ch int, on bool) error {
	return m.apply(ch, func() { m.trigger[ch] = on })
}

func (m *MemoryBank) SetPitches(writes []voice.PitchWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for _, w := range writes {
		if w.Channel >= 0 && w.Channel < state.NumChannels {
			m.pitch[w.Channel] = w.Value
		}
	}
	m.writes++
	return nil
}

var _ voice.BatchBank = (*MemoryBank)(nil)
