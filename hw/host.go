package hw

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"go-midicv/config"
	"go-midicv/debug"
	"go-midicv/panel"
)

// Board is every peripheral of the converter
type Board struct {
	bus     i2c.BusCloser
	Bank    *Bank
	ADC     *ADC
	LCD     *LCD
	Buttons *ButtonSet
}

// Open initialises the host drivers and every device on the board
func Open(cfg *config.Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("host init", "Could not initialise GPIO/I2C drivers"))
	}

	hwc := cfg.Hardware
	bus, err := i2creg.Open(hwc.I2CBus)
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("open i2c", "I2C bus "+busName(hwc.I2CBus)+" is not available"))
	}
	debug.Info("hw", "i2c bus open", "bus", bus.String())

	b := &Board{
		bus:  bus,
		Bank: NewBank(NewDAC(bus, hwc.DACAddr), NewExpander(bus, hwc.ExpanderAddr)),
		ADC:  NewADC(bus, hwc.ADCAddr),
	}
	if err := b.Bank.Init(); err != nil {
		bus.Close()
		return nil, err
	}

	lcd, err := openLCD(hwc.LCD)
	if err != nil {
		bus.Close()
		return nil, err
	}
	b.LCD = lcd
	if err := b.LCD.Init(); err != nil {
		bus.Close()
		return nil, err
	}

	pins := map[panel.Button]gpio.PinIn{}
	for name, pinName := range hwc.Buttons {
		btn, ok := panel.ParseButton(name)
		if !ok {
			debug.Warn("hw", "unknown button in config", "button", name)
			continue
		}
		p := gpioreg.ByName(pinName)
		if p == nil {
			bus.Close()
			return nil, fault.New("no pin "+pinName, ftag.With(ftag.NotFound),
				fmsg.WithDesc("button pin", "GPIO "+pinName+" for button "+name+" does not exist"))
		}
		pins[btn] = p
	}
	b.Buttons = NewButtonSet(pins, cfg.Debounce(), cfg.HoldTime())
	if err := b.Buttons.Init(); err != nil {
		bus.Close()
		return nil, err
	}
	return b, nil
}

func openLCD(p config.LCDPins) (*LCD, error) {
	names := []string{p.RS, p.E, p.D4, p.D5, p.D6, p.D7}
	pins := make([]gpio.PinOut, len(names))
	for i, n := range names {
		pin := gpioreg.ByName(n)
		if pin == nil {
			return nil, fault.New("no pin "+n, ftag.With(ftag.NotFound),
				fmsg.WithDesc("lcd pin", "GPIO "+n+" for the LCD does not exist"))
		}
		pins[i] = pin
	}
	return NewLCD(pins[0], pins[1], pins[2], pins[3], pins[4], pins[5]), nil
}

// TempoPot builds the tempo control from the board's ADC
func (b *Board) TempoPot(cfg *config.Config) *TempoPot {
	return NewTempoPot(b.ADC, cfg.Tempo.MinBPM, cfg.Tempo.MaxBPM, cfg.TempoPoll())
}

// Close silences the bank and releases the bus
func (b *Board) Close() error {
	err := b.Bank.Off()
	if cerr := b.bus.Close(); cerr != nil && err == nil {
		err = fault.Wrap(cerr, fmsg.With("close i2c"))
	}
	return err
}

func busName(n string) string {
	if n == "" {
		return "(default)"
	}
	return n
}

