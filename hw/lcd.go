package hw

import (
	"context"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"periph.io/x/conn/v3/gpio"

	"go-midicv/debug"
	"go-midicv/panel"
)

// HD44780 instructions
const (
	lcdClear      = 0x01
	lcdHome       = 0x02
	lcdEntryMode  = 0x06 // increment, no shift
	lcdDisplayOff = 0x08
	lcdDisplayOn  = 0x0C // display on, cursor off
	lcdFunction   = 0x28 // 4-bit bus, 2 lines, 5x8 font
	lcdSetDDRAM   = 0x80
	lcdRowOffset  = 0x40
)

// LCDFPS is the refresh rate of the flush loop
const LCDFPS = 30

// LCD drives a 16x2 character display on a 4-bit parallel bus
type LCD struct {
	rs, e gpio.PinOut
	data  [4]gpio.PinOut // D4..D7

	sleep func(time.Duration)

	shown [panel.Rows][panel.Cols]byte
	valid bool
}

// NewLCD takes the register select, enable and D4-D7 pins
func NewLCD(rs, e, d4, d5, d6, d7 gpio.PinOut) *LCD {
	return &LCD{
		rs:    rs,
		e:     e,
		data:  [4]gpio.PinOut{d4, d5, d6, d7},
		sleep: time.Sleep,
	}
}

// Init runs the power-on sequence that puts the controller in 4-bit mode
func (l *LCD) Init() error {
	l.sleep(50 * time.Millisecond)
	for _, p := range append([]gpio.PinOut{l.rs, l.e}, l.data[:]...) {
		if err := p.Out(gpio.Low); err != nil {
			return fault.Wrap(err, fmsg.WithDesc("lcd pin", "Could not drive LCD pins"))
		}
	}

	// three 8-bit function sets, then switch to 4 bits
	for _, wait := range []time.Duration{4500 * time.Microsecond, 4500 * time.Microsecond, 150 * time.Microsecond} {
		if err := l.nibble(0x3); err != nil {
			return err
		}
		l.sleep(wait)
	}
	if err := l.nibble(0x2); err != nil {
		return err
	}

	for _, cmd := range []byte{lcdFunction, lcdDisplayOff, lcdClear, lcdEntryMode, lcdDisplayOn, lcdHome} {
		if err := l.command(cmd); err != nil {
			return err
		}
	}
	l.valid = false
	return nil
}

func (l *LCD) command(b byte) error {
	if err := l.rs.Out(gpio.Low); err != nil {
		return fault.Wrap(err, fmsg.With("lcd rs"))
	}
	if err := l.byte(b); err != nil {
		return err
	}
	if b == lcdClear || b == lcdHome {
		l.sleep(2 * time.Millisecond)
	}
	return nil
}

func (l *LCD) char(c byte) error {
	if err := l.rs.Out(gpio.High); err != nil {
		return fault.Wrap(err, fmsg.With("lcd rs"))
	}
	return l.byte(c)
}

func (l *LCD) byte(b byte) error {
	if err := l.nibble(b >> 4); err != nil {
		return err
	}
	return l.nibble(b & 0x0F)
}

// nibble puts four bits on D4..D7 and pulses enable
func (l *LCD) nibble(n byte) error {
	for i, p := range l.data {
		if err := p.Out(gpio.Level(n&(1<<i) != 0)); err != nil {
			return fault.Wrap(err, fmsg.With("lcd data"))
		}
	}
	if err := l.e.Out(gpio.High); err != nil {
		return fault.Wrap(err, fmsg.With("lcd enable"))
	}
	if err := l.e.Out(gpio.Low); err != nil {
		return fault.Wrap(err, fmsg.With("lcd enable"))
	}
	l.sleep(50 * time.Microsecond)
	return nil
}

// Show writes the lines, sending only characters that changed since the
// last call. Returns how many characters went over the bus.
func (l *LCD) Show(lines [panel.Rows]string) (int, error) {
	sent := 0
	for row, line := range lines {
		cursor := -1
		for col := 0; col < panel.Cols; col++ {
			c := byte(' ')
			if col < len(line) {
				c = line[col]
			}
			if l.valid && l.shown[row][col] == c {
				continue
			}
			if cursor != col {
				if err := l.command(lcdSetDDRAM | byte(row*lcdRowOffset+col)); err != nil {
					l.valid = false
					return sent, err
				}
			}
			if err := l.char(c); err != nil {
				l.valid = false
				return sent, err
			}
			l.shown[row][col] = c
			cursor = col + 1
			sent++
		}
	}
	l.valid = true
	return sent, nil
}

// Lines is anything that can say what the screen should show
type Lines interface {
	Lines() [panel.Rows]string
}

// Run refreshes the LCD from src at a fixed rate until ctx is done
func (l *LCD) Run(ctx context.Context, src Lines) {
	ticker := time.NewTicker(time.Second / LCDFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := l.Show(src.Lines()); err != nil {
				debug.LogEvery(100, "lcd", "flush failed: %v", err)
			} else if n > 0 {
				debug.Log("lcd", "flush: %d chars", n)
			}
		}
	}
}
