package voice

// Bank is the channel bank driver: one pitch output, one gate line and one
// trigger line per channel. Channels are addressed 0..NumChannels-1. Each
// call applies atomically from the caller's point of view.
type Bank interface {
	SetPitch(channel int, value uint16) error
	SetGate(channel int, on bool) error
	SetTrigger(channel int, on bool) error
}

// PitchWrite is one entry of a collective pitch update
type PitchWrite struct {
	Channel int
	Value   uint16
}

// BatchBank is implemented by banks that can move several pitch outputs in
// one collective write, so they all change at the same instant.
type BatchBank interface {
	Bank
	SetPitches(writes []PitchWrite) error
}
