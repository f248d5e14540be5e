package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Status nibbles the core reacts to
const (
	NoteOff    uint8 = 0x80
	NoteOn     uint8 = 0x90
	CC         uint8 = 0xB0
	PitchBend  uint8 = 0xE0
	allNotesCC uint8 = 122 // controllers above this mean all notes off
)

// Event is one fixed-size channel message as delivered by a source.
// Two-byte messages carry Data2 = 0.
type Event struct {
	Status uint8
	Data1  uint8
	Data2  uint8
}

// Kind classifies an event for dispatch
type Kind int

const (
	KindOther Kind = iota
	KindNoteOn
	KindNoteOff
	KindPitchBend
	KindAllNotesOff
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "note-on"
	case KindNoteOff:
		return "note-off"
	case KindPitchBend:
		return "pitch-bend"
	case KindAllNotesOff:
		return "all-notes-off"
	default:
		return "other"
	}
}

// Channel is the zero-based MIDI channel
func (e Event) Channel() uint8 {
	return e.Status & 0x0F
}

// Len is the wire length of the message
func (e Event) Len() int {
	switch e.Status & 0xF0 {
	case 0xC0, 0xD0:
		return 2
	default:
		return 3
	}
}

// Message returns the event as a gomidi message
func (e Event) Message() gomidi.Message {
	b := []byte{e.Status, e.Data1, e.Data2}
	return gomidi.Message(b[:e.Len()])
}

// Kind decodes the event. A note-on with velocity 0 is a note-off.
func (e Event) Kind() Kind {
	msg := e.Message()
	var ch, key, vel, ctl uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return KindNoteOn
	case msg.GetNoteEnd(&ch, &key):
		return KindNoteOff
	case msg.GetPitchBend(&ch, &rel, &abs):
		return KindPitchBend
	case msg.GetControlChange(&ch, &ctl, &vel) && ctl > allNotesCC:
		return KindAllNotesOff
	}
	return KindOther
}

// Note is the key number of a note event
func (e Event) Note() uint8 {
	return e.Data1 & 0x7F
}

// Bend returns the 14-bit pitch bend value, 8192 = centre
func (e Event) Bend() uint16 {
	return uint16(e.Data2&0x7F)<<7 | uint16(e.Data1&0x7F)
}

// BendSemitones maps the bend wheel onto +/- bendRange semitones
func (e Event) BendSemitones(bendRange float64) float64 {
	return (float64(e.Bend()) - 8192) / 8192 * bendRange
}

func (e Event) String() string {
	return fmt.Sprintf("%02X %02X %02X %s", e.Status, e.Data1, e.Data2, e.Kind())
}

// FromMessage converts a gomidi channel message into an Event. Anything
// else (sysex, realtime, meta) is rejected.
func FromMessage(msg gomidi.Message) (Event, bool) {
	if len(msg) < 2 || msg[0] < 0x80 || msg[0] >= 0xF0 {
		return Event{}, false
	}
	e := Event{Status: msg[0], Data1: msg[1]}
	if e.Len() == 3 {
		if len(msg) < 3 {
			return Event{}, false
		}
		e.Data2 = msg[2]
	}
	return e, true
}
