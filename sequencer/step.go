package sequencer

import "go-midicv/state"

const (
	NumSteps     = 16
	NumLayers    = 8
	SlotsPerStep = state.NumChannels
	MaxRatchet   = 4
)

// Step is one cell of a layer's grid
type Step struct {
	Slots    [SlotsPerStep]Slot
	Ratchets int // subdivisions per step, 1..MaxRatchet
	Tie      bool

	// pulse counters within the current step
	enableCount  int
	disableCount int
}

// NewStep returns a cleared step: every slot Reset, one division
func NewStep() Step {
	return Step{Ratchets: 1}
}

// Width counts contiguous note slots from slot 0
func (s Step) Width() int {
	n := 0
	for _, slot := range s.Slots {
		if !slot.IsNote() {
			break
		}
		n++
	}
	return n
}

func (s Step) IsRest() bool {
	return s.Slots[0].Kind == SlotRest
}

func (s Step) IsReset() bool {
	return s.Slots[0].Kind == SlotReset
}

// Sounds reports whether playing this step produces notes
func (s Step) Sounds() bool {
	return s.Slots[0].IsNote()
}

// Contains reports whether note is already in the step's chord
func (s Step) Contains(note uint8) bool {
	for _, slot := range s.Slots {
		if slot.IsNote() && slot.Note == note {
			return true
		}
	}
	return false
}

// Fill sets every slot to the same value
func (s *Step) Fill(slot Slot) {
	for i := range s.Slots {
		s.Slots[i] = slot
	}
}

func (s *Step) divisions() int {
	if s.Ratchets < 1 {
		return 1
	}
	if s.Ratchets > MaxRatchet {
		return MaxRatchet
	}
	return s.Ratchets
}

func (s *Step) closeOut() {
	s.enableCount = 0
	s.disableCount = 0
}

// Pulses returns the counters for the step in progress
func (s Step) Pulses() (enabled, disabled int) {
	return s.enableCount, s.disableCount
}
