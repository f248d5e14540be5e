package sequencer

// Layer is one independent track with its own channel sub-range and cursor
type Layer struct {
	VoicesUsed   int
	StartChannel int
	CurrentStep  int
	Steps        [NumSteps]Step
}

func newLayer() Layer {
	l := Layer{}
	for i := range l.Steps {
		l.Steps[i] = NewStep()
	}
	return l
}

// RecomputeVoicesUsed sizes the layer for its widest chord
func (l *Layer) RecomputeVoicesUsed() {
	max := 0
	for i := range l.Steps {
		if w := l.Steps[i].Width(); w > max {
			max = w
		}
	}
	l.VoicesUsed = max
}

// Owns reports whether channel ch falls in the layer's range
func (l Layer) Owns(ch int) bool {
	return ch >= l.StartChannel && ch < l.StartChannel+l.VoicesUsed
}

// PatternLength is the number of steps before the first Reset step
func (l Layer) PatternLength() int {
	for i := 1; i < NumSteps; i++ {
		if l.Steps[i].IsReset() {
			return i
		}
	}
	return NumSteps
}
