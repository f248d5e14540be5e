package panel

import (
	"sync"
	"time"
)

// Button names a front panel button
type Button int

const (
	ButtonLayer Button = iota
	ButtonStep
	ButtonBudget
	ButtonRest
	ButtonRatchet
	ButtonClear
	NumButtons
)

var buttonNames = [NumButtons]string{"layer", "step", "budget", "rest", "ratchet", "clear"}

func (b Button) String() string {
	if b < 0 || b >= NumButtons {
		return "unknown"
	}
	return buttonNames[b]
}

// ParseButton maps a config name to a Button
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if n == name {
			return Button(i), true
		}
	}
	return 0, false
}

// Action is what happened to a button
type Action int

const (
	Press   Action = iota // debounced press edge, acts as click
	Hold                  // still pressed after the hold time, sent once
	Release
)

// InputKind separates button input from the other control requests
type InputKind int

const (
	InputButton InputKind = iota
	InputPanic            // silence every channel
	InputTempo            // nudge bpm by Delta
	InputQuit
)

// Input is one request for the control loop
type Input struct {
	Kind   InputKind
	Button Button
	Action Action
	Delta  float64
}

// ButtonInput is shorthand for a button action
func ButtonInput(b Button, a Action) Input {
	return Input{Kind: InputButton, Button: b, Action: a}
}

// Buttons is polled once per control loop iteration
type Buttons interface {
	Poll(now time.Duration) []Input
}

// InputQueue carries inputs from other goroutines (the TUI, device
// watchers) to the control loop.
type InputQueue struct {
	mu     sync.Mutex
	inputs []Input
}

func NewInputQueue() *InputQueue {
	return &InputQueue{}
}

func (q *InputQueue) Push(in ...Input) {
	q.mu.Lock()
	q.inputs = append(q.inputs, in...)
	q.mu.Unlock()
}

// Drain appends queued inputs to dst and empties the queue
func (q *InputQueue) Drain(dst []Input) []Input {
	q.mu.Lock()
	dst = append(dst, q.inputs...)
	q.inputs = q.inputs[:0]
	q.mu.Unlock()
	return dst
}

// Click queues a press and release
func (q *InputQueue) Click(b Button) {
	q.Push(ButtonInput(b, Press), ButtonInput(b, Release))
}

// LongPress queues a press, hold and release
func (q *InputQueue) LongPress(b Button) {
	q.Push(ButtonInput(b, Press), ButtonInput(b, Hold), ButtonInput(b, Release))
}
