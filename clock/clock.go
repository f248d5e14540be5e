package clock

import (
	"sync"
	"time"
)

// Clock reports monotonic elapsed time since some fixed origin.
type Clock interface {
	Now() time.Duration
}

// Monotonic measures elapsed time from the moment it was created.
// time.Since uses the monotonic reading, so wall clock jumps don't matter.
type Monotonic struct {
	start time.Time
}

// NewMonotonic starts a clock at zero
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

func (m *Monotonic) Now() time.Duration {
	return time.Since(m.start)
}

// Manual is a clock that only moves when told to. Used by tests and by
// anything that needs to replay a timeline.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d and returns the new time
func (m *Manual) Advance(d time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
	return m.now
}

// Set jumps to an absolute time. Going backwards is allowed but callers
// should not rely on components handling it.
func (m *Manual) Set(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Seconds converts a duration to float seconds, the unit the sequencer
// does its beat arithmetic in.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// FromSeconds is the inverse of Seconds
func FromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
