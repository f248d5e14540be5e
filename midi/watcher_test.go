package midi

import (
	"errors"
	"testing"
)

type fakePorts struct {
	names   []string
	opened  []string
	stopped []string
	fail    bool
	onError func(error)
}

func (f *fakePorts) connect(name string, q *Queue, onError func(error)) (func(), error) {
	if f.fail {
		return nil, errors.New("busy")
	}
	f.opened = append(f.opened, name)
	f.onError = onError
	return func() { f.stopped = append(f.stopped, name) }, nil
}

func newFakeWatcher(pattern string, f *fakePorts) *Watcher {
	w := NewWatcher(pattern)
	w.list = func() []string { return f.names }
	w.connect = f.connect
	return w
}

func nextEvent(t *testing.T, w *Watcher) DeviceEvent {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	default:
		t.Fatal("no device event")
	}
	return DeviceEvent{}
}

func TestPickPort(t *testing.T) {
	names := []string{"Midi Through:Midi Through Port-0 14:0", "Arturia KeyStep 32:0", "USB Uno 24:0"}
	tests := []struct {
		pattern string
		want    string
		ok      bool
	}{
		{"", "Arturia KeyStep 32:0", true},
		{"uno", "USB Uno 24:0", true},
		{"through", "", false},
		{"launchpad", "", false},
	}
	for _, tt := range tests {
		got, ok := PickPort(names, tt.pattern)
		if got != tt.want || ok != tt.ok {
			t.Errorf("PickPort(%q) = %q %v, want %q %v", tt.pattern, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWatcherConnectsAndFollowsUnplug(t *testing.T) {
	f := &fakePorts{}
	w := newFakeWatcher("keystep", f)
	q := NewQueue()

	w.scan(q)
	if w.Connected() != "" {
		t.Fatal("connected with no ports")
	}

	f.names = []string{"KeyStep"}
	w.scan(q)
	if ev := nextEvent(t, w); ev.Type != DeviceConnected || ev.Name != "KeyStep" {
		t.Errorf("event = %+v", ev)
	}
	w.scan(q)
	if len(f.opened) != 1 {
		t.Errorf("reopened a present port: %v", f.opened)
	}

	f.names = nil
	w.scan(q)
	if ev := nextEvent(t, w); ev.Type != DeviceDisconnected {
		t.Errorf("event = %+v", ev)
	}
	if len(f.stopped) != 1 || w.Connected() != "" {
		t.Errorf("stopped=%v connected=%q", f.stopped, w.Connected())
	}
}

func TestWatcherReconnectsAfterListenerError(t *testing.T) {
	f := &fakePorts{names: []string{"KeyStep"}}
	w := newFakeWatcher("", f)
	q := NewQueue()

	w.scan(q)
	nextEvent(t, w)
	f.onError(errors.New("stream broke"))

	w.scan(q)
	if ev := nextEvent(t, w); ev.Type != DeviceDisconnected {
		t.Fatalf("event = %+v", ev)
	}
	if ev := nextEvent(t, w); ev.Type != DeviceConnected {
		t.Fatalf("event = %+v", ev)
	}
	if len(f.opened) != 2 {
		t.Errorf("opened = %v", f.opened)
	}
}

func TestWatcherConnectFailureStaysDisconnected(t *testing.T) {
	f := &fakePorts{names: []string{"KeyStep"}, fail: true}
	w := newFakeWatcher("", f)
	w.scan(NewQueue())
	if w.Connected() != "" {
		t.Error("connected after failure")
	}
	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event %+v", ev)
	default:
	}
}
