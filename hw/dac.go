package hw

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"periph.io/x/conn/v3/i2c"

	"go-midicv/voice"
)

// DAC7578 command nibbles
const (
	dacWrite          byte = 0x0 // write input register n
	dacUpdate         byte = 0x1 // update DAC register n
	dacWriteUpdateAll byte = 0x2 // write input register n, update all
	dacWriteUpdate    byte = 0x3 // write and update DAC register n
)

const (
	DefaultDACAddr = 0x48
	DACChannels    = 8
	DACMaxCode     = 4095
)

// DAC drives an octal 12-bit I2C converter, one output per pitch CV
type DAC struct {
	dev *i2c.Dev
}

func NewDAC(bus i2c.Bus, addr uint16) *DAC {
	return &DAC{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// frame builds the 3-byte command: command/address, then the 12-bit
// value left-justified in two bytes.
func frame(cmd byte, ch int, value uint16) []byte {
	if value > DACMaxCode {
		value = DACMaxCode
	}
	return []byte{cmd<<4 | byte(ch&0x0F), byte(value >> 4), byte(value&0x0F) << 4}
}

func (d *DAC) send(cmd byte, ch int, value uint16) error {
	if ch < 0 || ch >= DACChannels {
		return fault.New(fmt.Sprintf("dac channel %d out of range", ch))
	}
	if _, err := d.dev.Write(frame(cmd, ch, value)); err != nil {
		return fault.Wrap(err, fmsg.With(fmt.Sprintf("dac write channel %d", ch)))
	}
	return nil
}

// Set writes one output and updates it immediately
func (d *DAC) Set(ch int, value uint16) error {
	return d.send(dacWriteUpdate, ch, value)
}

// SetAll loads every input register and updates all outputs with the
// final frame, so they change together.
func (d *DAC) SetAll(writes []voice.PitchWrite) error {
	for i, w := range writes {
		cmd := dacWrite
		if i == len(writes)-1 {
			cmd = dacWriteUpdateAll
		}
		if err := d.send(cmd, w.Channel, w.Value); err != nil {
			return err
		}
	}
	return nil
}

// Zero sets every output to 0 V
func (d *DAC) Zero() error {
	writes := make([]voice.PitchWrite, DACChannels)
	for i := range writes {
		writes[i].Channel = i
	}
	return d.SetAll(writes)
}
