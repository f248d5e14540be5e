package midi

import (
	"context"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register rtmidi driver

	"go-midicv/debug"
)

// Source produces events into a queue until ctx is cancelled
type Source interface {
	Name() string
	Run(ctx context.Context, q *Queue) error
}

// Ports that are never auto-connected
var excludedPorts = []string{"Midi Through", "Through Port", "Dummy"}

// InputNames lists the MIDI inputs the driver can see
func InputNames() []string {
	var names []string
	for _, in := range gomidi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// PickPort chooses an input: the first whose name contains pattern, or
// with an empty pattern the first that is not a loopback port.
func PickPort(names []string, pattern string) (string, bool) {
	for _, name := range names {
		if excluded(name) {
			continue
		}
		if pattern == "" || containsFold(name, pattern) {
			return name, true
		}
	}
	return "", false
}

func excluded(name string) bool {
	for _, pat := range excludedPorts {
		if containsFold(name, pat) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// PortSource listens to one rtmidi input
type PortSource struct {
	name string
}

func NewPortSource(name string) *PortSource {
	return &PortSource{name: name}
}

func (s *PortSource) Name() string {
	return s.name
}

// Run blocks until ctx is done
func (s *PortSource) Run(ctx context.Context, q *Queue) error {
	stop, err := Listen(s.name, q, nil)
	if err != nil {
		return err
	}
	<-ctx.Done()
	stop()
	return nil
}

// Listen connects the named input to q and returns a stop function.
// onError is called from the driver's goroutine if the stream breaks.
func Listen(name string, q *Queue, onError func(error)) (func(), error) {
	in, err := gomidi.FindInPort(name)
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("find midi input", "MIDI input "+name+" is not connected"))
	}
	return listenTo(in, q, onError)
}

func listenTo(in drivers.In, q *Queue, onError func(error)) (func(), error) {
	name := in.String()
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		e, ok := FromMessage(msg)
		if !ok {
			return
		}
		q.Push(e)
	}, gomidi.HandleError(func(err error) {
		debug.Warn("midi", "listener error", "port", name, "err", err)
		if onError != nil {
			onError(err)
		}
	}))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("listen to midi input", "Could not open MIDI input "+name))
	}
	debug.Info("midi", "listening", "port", name)
	return stop, nil
}
