package midi

import (
	"context"
	"errors"
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"go.bug.st/serial"

	"go-midicv/debug"
)

// DINBaud is the MIDI 1.0 wire rate
const DINBaud = 31250

// SerialSource reads DIN MIDI from a UART
type SerialSource struct {
	device string
	baud   int
}

func NewSerialSource(device string, baud int) *SerialSource {
	if baud <= 0 {
		baud = DINBaud
	}
	return &SerialSource{device: device, baud: baud}
}

func (s *SerialSource) Name() string {
	return s.device
}

// Run opens the port and parses it until ctx is cancelled or the port
// fails.
func (s *SerialSource) Run(ctx context.Context, q *Queue) error {
	port, err := serial.Open(s.device, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fault.Wrap(err,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("open serial midi", "Could not open serial port "+s.device))
	}
	debug.Info("midi", "serial port opened", "device", s.device, "baud", s.baud)

	// Close unblocks the pending Read
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = ReadStream(port, q)
	if ctx.Err() != nil {
		return nil
	}
	return fault.Wrap(err, fmsg.With("read serial midi"))
}

// ReadStream parses r into q until r fails or reaches EOF
func ReadStream(r io.Reader, q *Queue) error {
	p := NewParser(q.Push)
	_, err := io.Copy(p, r)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// SerialPorts lists the serial devices present
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("list serial ports"))
	}
	return ports, nil
}
