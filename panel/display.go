package panel

import (
	"strings"
	"sync"
	"time"

	"go-midicv/clock"
)

// Display geometry of the character screen
const (
	Cols = 16
	Rows = 2
)

// Display shows status text and short-lived messages
type Display interface {
	ShowTimedMessage(text string, d time.Duration)
	ShowPersistentStatus(text string)
}

// TextDisplay is the frame buffer behind the character screen. The
// control loop writes to it; the LCD flush loop and the TUI read Lines.
type TextDisplay struct {
	mu       sync.Mutex
	clock    clock.Clock
	status   [Rows]string
	message  string
	deadline time.Duration
}

func NewTextDisplay(clk clock.Clock) *TextDisplay {
	return &TextDisplay{clock: clk}
}

// ShowTimedMessage replaces the first line for d
func (t *TextDisplay) ShowTimedMessage(text string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = text
	t.deadline = t.clock.Now() + d
}

// ShowPersistentStatus sets the status lines, separated by newlines
func (t *TextDisplay) ShowPersistentStatus(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := strings.SplitN(text, "\n", Rows)
	for i := range t.status {
		t.status[i] = ""
		if i < len(lines) {
			t.status[i] = lines[i]
		}
	}
}

// Lines returns what the screen shows now, each line padded to Cols
func (t *TextDisplay) Lines() [Rows]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.status
	if t.message != "" {
		if t.clock.Now() < t.deadline {
			out[0] = t.message
		} else {
			t.message = ""
		}
	}
	for i := range out {
		out[i] = fit(out[i])
	}
	return out
}

func fit(s string) string {
	r := []rune(s)
	if len(r) > Cols {
		return string(r[:Cols])
	}
	return s + strings.Repeat(" ", Cols-len(r))
}
