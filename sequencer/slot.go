package sequencer

import "fmt"

// SlotKind tags what a step slot holds
type SlotKind uint8

const (
	SlotReset SlotKind = iota // end of pattern / end of chord
	SlotRest                  // silence
	SlotNote
)

// Slot is one entry of a step's note group. The zero value is Reset.
type Slot struct {
	Kind SlotKind
	Note uint8
}

var (
	Rest  = Slot{Kind: SlotRest}
	Reset = Slot{Kind: SlotReset}
)

// NoteSlot returns a slot that sounds note n
func NoteSlot(n uint8) Slot {
	return Slot{Kind: SlotNote, Note: n & 0x7F}
}

func (s Slot) IsNote() bool {
	return s.Kind == SlotNote
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI note as name+octave, C4 = 60
func NoteName(n uint8) string {
	return fmt.Sprintf("%s%d", noteNames[n%12], int(n)/12-1)
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotRest:
		return "rest"
	case SlotNote:
		return NoteName(s.Note)
	default:
		return "reset"
	}
}
