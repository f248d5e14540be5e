package voice

import "math"

// PitchMapper turns a note plus bend into a DAC code on a 1 V/octave scale.
// The fields are calibration constants for the hardware.
type PitchMapper struct {
	ReferenceNote  int     // note that maps to 0 V
	FullScaleVolts float64 // output voltage at MaxCode
	MaxCode        uint16  // DAC full-scale code
}

// DefaultPitchMapper puts C2 at 0 V on a 12-bit, 5 V DAC
func DefaultPitchMapper() PitchMapper {
	return PitchMapper{
		ReferenceNote:  36,
		FullScaleVolts: 5.0,
		MaxCode:        4095,
	}
}

// Volts returns the unclamped control voltage for a note
func (m PitchMapper) Volts(note uint8, bend float64) float64 {
	return (float64(int(note)-m.ReferenceNote) + bend) / 12.0
}

// Value returns the DAC code, clamped to the converter's range
func (m PitchMapper) Value(note uint8, bend float64) uint16 {
	if m.FullScaleVolts <= 0 {
		return 0
	}
	code := math.Round(m.Volts(note, bend) / m.FullScaleVolts * float64(m.MaxCode))
	if code < 0 {
		return 0
	}
	if code > float64(m.MaxCode) {
		return m.MaxCode
	}
	return uint16(code)
}
