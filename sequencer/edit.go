package sequencer

import (
	"go-midicv/debug"
	"go-midicv/state"
)

// IsAcceptingInput reports whether editing operations apply: a sequencer
// layer is in view and a step is selected.
func (s *Sequencer) IsAcceptingInput() bool {
	l := s.params.CurrentLayer
	return l >= 1 && l <= s.activeLayers() && s.selected >= 0
}

// SelectStep picks the step to edit. The next key press replaces its
// contents.
func (s *Sequencer) SelectStep(i int) {
	if i < 0 || i >= NumSteps {
		return
	}
	s.selected = i
	s.fresh = true
}

func (s *Sequencer) Deselect() {
	s.selected = -1
	s.fresh = false
}

// SelectedStep returns the step being edited, -1 if none
func (s *Sequencer) SelectedStep() int {
	return s.selected
}

func (s *Sequencer) currentLayer() *Layer {
	return &s.layers[s.params.LayerIndex()]
}

// editable returns the addressed step of the current layer, or nil when
// editing is not possible.
func (s *Sequencer) editable(step int) *Step {
	if !s.IsAcceptingInput() || step < 0 || step >= NumSteps {
		return nil
	}
	return &s.currentLayer().Steps[step]
}

// PressKey writes note into the selected step. The first key after
// selection replaces the step with a single note; later keys build a
// chord. Returns false when the edit was ignored.
func (s *Sequencer) PressKey(note uint8) bool {
	st := s.editable(s.selected)
	if st == nil {
		return false
	}
	l := s.currentLayer()

	if s.fresh {
		if !s.fits(l, 1) {
			debug.Log("sequencer", "note %d rejected: no channel left", note)
			return false
		}
		st.Fill(Reset)
		st.Slots[0] = NoteSlot(note)
		s.fresh = false
		s.RecomputeLayout()
		return true
	}

	if st.IsRest() {
		st.Fill(Reset)
	}
	if st.Contains(note) {
		return false
	}
	idx := st.Width()
	if idx >= SlotsPerStep {
		return false
	}
	if !s.fits(l, idx+1) {
		debug.Log("sequencer", "note %d rejected: chord of %d exceeds budget", note, idx+1)
		return false
	}
	st.Slots[idx] = NoteSlot(note)
	s.RecomputeLayout()
	return true
}

// fits reports whether layer l can grow to width w without pushing the
// active layers past the end of the bank.
func (s *Sequencer) fits(l *Layer, w int) bool {
	if w <= l.VoicesUsed {
		return true
	}
	total := s.params.LiveBudget + w
	for i := 0; i < s.activeLayers(); i++ {
		if &s.layers[i] != l {
			total += s.layers[i].VoicesUsed
		}
	}
	return total <= state.NumChannels
}

// SetRest makes step a rest in the current layer
func (s *Sequencer) SetRest(step int) bool {
	return s.fill(step, Rest)
}

// SetReset clears step, marking the end of the pattern when it is not
// step 0
func (s *Sequencer) SetReset(step int) bool {
	return s.fill(step, Reset)
}

func (s *Sequencer) fill(step int, slot Slot) bool {
	st := s.editable(step)
	if st == nil {
		return false
	}
	st.Fill(slot)
	s.RecomputeLayout()
	return true
}

// CycleRatchet steps the division count 1, 2, .., MaxRatchet, 1
func (s *Sequencer) CycleRatchet(step int) bool {
	st := s.editable(step)
	if st == nil {
		return false
	}
	st.Ratchets = st.divisions()%MaxRatchet + 1
	return true
}

func (s *Sequencer) ToggleTie(step int) bool {
	st := s.editable(step)
	if st == nil {
		return false
	}
	st.Tie = !st.Tie
	return true
}

// SyncLayers sends every layer back to step 0 and restarts the beat
func (s *Sequencer) SyncLayers() {
	for i := range s.layers {
		s.layers[i].Steps[s.layers[i].CurrentStep].closeOut()
		s.layers[i].CurrentStep = 0
	}
	s.started = false
}

// ResetAll clears every step of every layer and silences the sequencer
func (s *Sequencer) ResetAll() {
	for i := range s.layers {
		s.release(&s.layers[i])
		s.layers[i] = newLayer()
	}
	for ch := range s.on {
		s.turnOff(ch)
	}
	s.RecomputeLayout()
	s.fresh = s.selected >= 0
}
