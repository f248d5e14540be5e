package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-midicv/debug"
)

// Parser turns a raw MIDI byte stream into channel events. Framing,
// running status and realtime bytes are handled by gomidi's reader;
// anything that is not a channel message is dropped.
type Parser struct {
	rd   *drivers.Reader
	emit func(Event)
}

// NewParser calls emit for every complete channel message
func NewParser(emit func(Event)) *Parser {
	p := &Parser{emit: emit}
	p.rd = drivers.NewReader(drivers.ListenConfig{
		// sysex is discarded, so the reader only needs room for the 0xF0
		SysExBufferSize: 1,
		OnErr: func(err error) {
			debug.LogEvery(100, "midi", "stream error: %v", err)
		},
	}, p.message)
	return p
}

func (p *Parser) message(msg []byte, _ int32) {
	if e, ok := FromMessage(gomidi.Message(msg)); ok && p.emit != nil {
		p.emit(e)
	}
}

// Write feeds bytes from a stream. It never fails, so a Parser can be the
// destination of io.Copy.
//
// The reader keeps a half-received message when a new status byte shows
// up and would take the status as data, so every non-realtime status
// resets it first.
func (p *Parser) Write(b []byte) (int, error) {
	start := 0
	for i, c := range b {
		if c < 0x80 || c >= 0xF8 {
			continue
		}
		if i > start {
			p.rd.EachMessage(b[start:i], 0)
		}
		p.rd.Reset()
		start = i
	}
	if start < len(b) {
		p.rd.EachMessage(b[start:], 0)
	}
	return len(b), nil
}
