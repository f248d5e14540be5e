package state

// NumChannels is the size of the physical channel bank
const NumChannels = 8

// Params is the process-wide control state. The control loop owns it and
// hands a pointer to the allocator and the sequencer; every field has a
// single writer per loop iteration.
type Params struct {
	// LiveBudget is how many channels, counted from 0, belong to live MIDI
	LiveBudget int `json:"liveBudget"`

	// CurrentLayer is 0 for the MIDI-only view, 1..MaxLayer for a sequencer layer
	CurrentLayer int `json:"currentLayer"`

	// MaxLayer is how many sequencer layers fit in the channels left over
	MaxLayer int `json:"maxLayer"`

	BPM float64 `json:"bpm"`
}

// NewParams creates params with every channel given to live input
func NewParams(liveBudget int, bpm float64) *Params {
	if liveBudget < 0 {
		liveBudget = 0
	}
	if liveBudget > NumChannels {
		liveBudget = NumChannels
	}
	return &Params{
		LiveBudget: liveBudget,
		BPM:        bpm,
	}
}

// InSequencerView reports whether a sequencer layer is selected
func (p *Params) InSequencerView() bool {
	return p.CurrentLayer != 0
}

// LayerIndex returns the zero-based index of the selected layer, or -1 in
// the MIDI-only view.
func (p *Params) LayerIndex() int {
	return p.CurrentLayer - 1
}
