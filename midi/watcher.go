package midi

import (
	"context"
	"sync"
	"time"

	"go-midicv/debug"
)

// DeviceEvent is emitted when the watched input connects or disconnects
type DeviceEvent struct {
	Type DeviceEventType
	Name string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// Watcher keeps one MIDI input connected, following hot-plug. It polls
// the driver's port list and reconnects when a matching port appears.
type Watcher struct {
	pattern     string
	pollRate    time.Duration
	scanTimeout time.Duration

	// swapped out by tests
	list    func() []string
	connect func(name string, q *Queue, onError func(error)) (func(), error)

	mu      sync.Mutex
	current string
	stop    func()
	broken  bool

	events chan DeviceEvent
}

// NewWatcher watches for an input whose name contains pattern. An empty
// pattern takes the first real input.
func NewWatcher(pattern string) *Watcher {
	return &Watcher{
		pattern:     pattern,
		pollRate:    time.Second,
		scanTimeout: 3 * time.Second,
		list:        InputNames,
		connect:     Listen,
		events:      make(chan DeviceEvent, 16),
	}
}

func (w *Watcher) Name() string {
	if c := w.Connected(); c != "" {
		return c
	}
	return "watch:" + w.pattern
}

// Events reports connects and disconnects. Closed when Run returns.
func (w *Watcher) Events() <-chan DeviceEvent {
	return w.events
}

// Connected returns the connected port name, empty if none
func (w *Watcher) Connected() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls until ctx is done (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context, q *Queue) error {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	w.scan(q)
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.closeConn()
			w.mu.Unlock()
			close(w.events)
			return nil
		case <-ticker.C:
			w.scan(q)
		}
	}
}

func (w *Watcher) scan(q *Queue) {
	// port enumeration can hang in some drivers
	ch := make(chan []string, 1)
	go func() { ch <- w.list() }()

	var names []string
	select {
	case names = <-ch:
	case <-time.After(w.scanTimeout):
		debug.Log("midi", "port scan timed out")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != "" {
		if !w.broken && present(names, w.current) {
			return
		}
		gone := w.current
		debug.Warn("midi", "device disappeared", "port", gone)
		w.closeConn()
		w.emit(DeviceEvent{Type: DeviceDisconnected, Name: gone})
	}

	name, ok := PickPort(names, w.pattern)
	if !ok {
		return
	}
	stop, err := w.connect(name, q, func(error) {
		w.mu.Lock()
		w.broken = true
		w.mu.Unlock()
	})
	if err != nil {
		debug.Error("midi", "connect failed", "port", name, "err", err)
		return
	}
	w.current = name
	w.stop = stop
	w.broken = false
	w.emit(DeviceEvent{Type: DeviceConnected, Name: name})
}

// closeConn must be called with mu held
func (w *Watcher) closeConn() {
	if w.stop != nil {
		w.stop()
		w.stop = nil
	}
	w.current = ""
	w.broken = false
}

func (w *Watcher) emit(ev DeviceEvent) {
	select {
	case w.events <- ev:
	default:
		debug.Log("midi", "device event dropped: %s %s", ev.Name, ev.Type)
	}
}

func present(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
