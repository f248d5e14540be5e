package hw

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"periph.io/x/conn/v3/i2c"
)

const DefaultExpanderAddr = 0x20

// MCP23017 registers, IOCON.BANK = 0
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regGPIOA  = 0x12
	regGPIOB  = 0x13
)

// Port selects one of the expander's 8-bit ports
type Port int

const (
	PortA Port = iota
	PortB
)

// Expander is a 16-bit I2C port expander with both ports as outputs.
// Output levels are cached so a bit change is one register write.
type Expander struct {
	dev   *i2c.Dev
	ports [2]byte
}

func NewExpander(bus i2c.Bus, addr uint16) *Expander {
	return &Expander{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Init makes every pin an output and drives it low
func (e *Expander) Init() error {
	for _, reg := range []byte{regIODIRA, regIODIRB, regGPIOA, regGPIOB} {
		if _, err := e.dev.Write([]byte{reg, 0x00}); err != nil {
			return fault.Wrap(err, fmsg.With(fmt.Sprintf("expander init register %#02x", reg)))
		}
	}
	e.ports = [2]byte{}
	return nil
}

// SetBit drives one pin. Unchanged pins cost no bus traffic.
func (e *Expander) SetBit(p Port, bit int, on bool) error {
	if bit < 0 || bit > 7 || (p != PortA && p != PortB) {
		return fault.New(fmt.Sprintf("expander pin %d/%d out of range", p, bit))
	}
	v := e.ports[p]
	if on {
		v |= 1 << bit
	} else {
		v &^= 1 << bit
	}
	if v == e.ports[p] {
		return nil
	}
	e.ports[p] = v
	return e.WritePort(p, v)
}

// WritePort sets all eight pins of a port
func (e *Expander) WritePort(p Port, v byte) error {
	reg := byte(regGPIOA)
	if p == PortB {
		reg = regGPIOB
	}
	e.ports[p] = v
	if _, err := e.dev.Write([]byte{reg, v}); err != nil {
		return fault.Wrap(err, fmsg.With(fmt.Sprintf("expander write port %d", p)))
	}
	return nil
}

// Port returns the cached output levels
func (e *Expander) Port(p Port) byte {
	return e.ports[p]
}
