package hw

import (
	"errors"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-midicv/voice"
)

// Bank is the channel bank: pitch on the DAC, gates on expander port A,
// triggers on port B, channel n on bit n.
type Bank struct {
	dac *DAC
	exp *Expander
}

func NewBank(dac *DAC, exp *Expander) *Bank {
	return &Bank{dac: dac, exp: exp}
}

// Init drives every gate and trigger low and zeroes the pitch outputs
func (b *Bank) Init() error {
	if err := b.exp.Init(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("init gates", "Could not reach the gate/trigger expander"))
	}
	if err := b.dac.Zero(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("init pitch", "Could not reach the pitch DAC"))
	}
	return nil
}

func (b *Bank) SetPitch(ch int, value uint16) error {
	return b.dac.Set(ch, value)
}

func (b *Bank) SetPitches(writes []voice.PitchWrite) error {
	return b.dac.SetAll(writes)
}

func (b *Bank) SetGate(ch int, on bool) error {
	return b.exp.SetBit(PortA, ch, on)
}

func (b *Bank) SetTrigger(ch int, on bool) error {
	return b.exp.SetBit(PortB, ch, on)
}

// Off drives every gate and trigger low
func (b *Bank) Off() error {
	return fault.Wrap(errors.Join(b.exp.WritePort(PortA, 0), b.exp.WritePort(PortB, 0)), fmsg.With("bank off"))
}

var _ voice.BatchBank = (*Bank)(nil)
