package hw

import (
	"fmt"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"periph.io/x/conn/v3/gpio"

	"go-midicv/panel"
)

// ButtonSet samples the front panel buttons. A pressed button reads high.
type ButtonSet struct {
	pins [panel.NumButtons]gpio.PinIn
	deb  [panel.NumButtons]*panel.Debouncer
	out  []panel.Input
}

// NewButtonSet wires pins to buttons. Buttons without a pin never fire.
func NewButtonSet(pins map[panel.Button]gpio.PinIn, debounce, hold time.Duration) *ButtonSet {
	b := &ButtonSet{}
	for btn, pin := range pins {
		if btn < 0 || btn >= panel.NumButtons || pin == nil {
			continue
		}
		b.pins[btn] = pin
		b.deb[btn] = panel.NewDebouncer(debounce, hold)
	}
	return b
}

// Init configures every pin as an input with a pull-down
func (b *ButtonSet) Init() error {
	for btn, pin := range b.pins {
		if pin == nil {
			continue
		}
		if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return fault.Wrap(err, fmsg.With(fmt.Sprintf("button %s on %s", panel.Button(btn), pin)))
		}
	}
	return nil
}

// Poll samples every pin once. The returned slice is reused by the next
// call.
func (b *ButtonSet) Poll(now time.Duration) []panel.Input {
	b.out = b.out[:0]
	for btn, pin := range b.pins {
		if pin == nil {
			continue
		}
		if a, ok := b.deb[btn].Update(pin.Read() == gpio.High, now); ok {
			b.out = append(b.out, panel.ButtonInput(panel.Button(btn), a))
		}
	}
	return b.out
}

var _ panel.Buttons = (*ButtonSet)(nil)
