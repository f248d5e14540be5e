package panel

import "time"

const (
	DefaultDebounce = 20 * time.Millisecond
	DefaultHoldTime = time.Second
)

// Debouncer turns raw samples of one button into Press, Hold and Release
// actions. A level change only counts once it has been stable for the
// debounce time.
type Debouncer struct {
	Debounce time.Duration
	HoldTime time.Duration

	raw       bool
	rawSince  time.Duration
	pressed   bool
	pressedAt time.Duration
	held      bool
}

func NewDebouncer(debounce, hold time.Duration) *Debouncer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if hold <= 0 {
		hold = DefaultHoldTime
	}
	return &Debouncer{Debounce: debounce, HoldTime: hold}
}

// Update feeds a raw sample taken at now and returns the resulting
// action, if any.
func (d *Debouncer) Update(raw bool, now time.Duration) (Action, bool) {
	if raw != d.raw {
		d.raw = raw
		d.rawSince = now
	}

	if d.raw != d.pressed && now-d.rawSince >= d.Debounce {
		d.pressed = d.raw
		if d.pressed {
			d.pressedAt = now
			d.held = false
			return Press, true
		}
		return Release, true
	}

	if d.pressed && !d.held && now-d.pressedAt >= d.HoldTime {
		d.held = true
		return Hold, true
	}
	return 0, false
}

// Pressed is the debounced state
func (d *Debouncer) Pressed() bool {
	return d.pressed
}
