package voice

// History is the pressed-key history: notes currently held, oldest press
// first. A note appears at most once.
type History struct {
	notes []uint8
}

// Push appends a note as the newest press, dropping any older entry for it
func (h *History) Push(note uint8) {
	h.Remove(note)
	h.notes = append(h.notes, note)
}

// Remove deletes a note, preserving the order of the rest
func (h *History) Remove(note uint8) bool {
	for i, n := range h.notes {
		if n == note {
			h.notes = append(h.notes[:i], h.notes[i+1:]...)
			return true
		}
	}
	return false
}

func (h *History) Contains(note uint8) bool {
	for _, n := range h.notes {
		if n == note {
			return true
		}
	}
	return false
}

func (h *History) Len() int {
	return len(h.notes)
}

// At returns the i-th oldest held note
func (h *History) At(i int) uint8 {
	return h.notes[i]
}

// Notes returns a copy, oldest first
func (h *History) Notes() []uint8 {
	out := make([]uint8, len(h.notes))
	copy(out, h.notes)
	return out
}

func (h *History) Clear() {
	h.notes = h.notes[:0]
}
