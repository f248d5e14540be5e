package hw

import (
	"math"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"periph.io/x/conn/v3/i2c"
)

const (
	DefaultADCAddr = 0x6A
	adcFullScale   = 2047.0 // 12-bit mode, positive range
	adcVref        = 2.048
)

// ADC reads a single-channel delta-sigma converter in continuous 12-bit
// mode. A plain two-byte read returns the latest conversion.
type ADC struct {
	dev *i2c.Dev
}

func NewADC(bus i2c.Bus, addr uint16) *ADC {
	return &ADC{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Read returns the raw signed conversion
func (a *ADC) Read() (int16, error) {
	var buf [2]byte
	if err := a.dev.Tx(nil, buf[:]); err != nil {
		return 0, fault.Wrap(err, fmsg.With("adc read"))
	}
	return int16(uint16(buf[0])<<8 | uint16(buf[1])), nil
}

// Voltage converts a raw reading to volts
func Voltage(raw int16) float64 {
	return float64(raw) / adcFullScale * adcVref
}

// PotPosition inverts the pot's divider network: position 0..1 for the
// measured voltage.
func PotPosition(v float64) float64 {
	if v <= 0.001 {
		return 0
	}
	pos := (500*v - 33 + math.Sqrt(290000*v*v-33000*v+1089)) / (1000 * v)
	return math.Max(0, math.Min(1, pos))
}

// TempoPot maps the pot onto a BPM range. Reads are rate limited; in
// between the last value is returned.
type TempoPot struct {
	adc      *ADC
	min, max float64
	interval time.Duration

	last   float64
	lastAt time.Duration
	valid  bool
}

func NewTempoPot(adc *ADC, min, max float64, interval time.Duration) *TempoPot {
	return &TempoPot{adc: adc, min: min, max: max, interval: interval}
}

// BPM returns the tempo for the pot at now
func (t *TempoPot) BPM(now time.Duration) (float64, error) {
	if t.valid && now-t.lastAt < t.interval {
		return t.last, nil
	}
	t.lastAt = now
	raw, err := t.adc.Read()
	if err != nil {
		return t.last, err
	}
	t.last = t.min + PotPosition(Voltage(raw))*(t.max-t.min)
	t.valid = true
	return t.last, nil
}
