package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Southclaws/fault/fmsg"

	"go-midicv/clock"
	"go-midicv/config"
	"go-midicv/debug"
	"go-midicv/engine"
	"go-midicv/hw"
	"go-midicv/midi"
	"go-midicv/panel"
)

const deviceMessageTime = 2 * time.Second

func main() {
	configPath := flag.String("config", "", "config file, .json or .yaml (default ~/.config/go-midicv/config.json)")
	verbose := flag.Bool("debug", false, "log debug detail to stderr")
	flag.Parse()

	debug.UseWriter(os.Stderr, *verbose)

	if err := run(*configPath); err != nil {
		debug.Error("main", "stopped", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	board, err := hw.Open(cfg)
	if err != nil {
		return err
	}
	defer board.Close()

	sys := engine.Build(cfg, clock.NewMonotonic(), board.Bank,
		engine.WithButtons(board.Buttons),
		engine.WithTempo(board.TempoPot(cfg)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lcdCtx, stopLCD := context.WithCancel(ctx)
	lcdDone := make(chan struct{})
	go func() {
		defer close(lcdDone)
		board.LCD.Run(lcdCtx, sys.Display)
	}()

	if src := midi.NewSource(string(cfg.MIDI.Source), cfg.MIDI.Port, cfg.MIDI.SerialDevice, cfg.MIDI.Baud); src != nil {
		go func() {
			if err := src.Run(ctx, sys.Engine.MIDI()); err != nil {
				debug.Error("main", "midi source stopped", "source", src.Name(), "err", err)
				sys.Display.ShowTimedMessage("MIDI failed", deviceMessageTime)
			}
		}()
		if w, ok := src.(*midi.Watcher); ok {
			go followDevices(w, sys)
		}
	}

	debug.Info("main", "running", "live", cfg.Voices.LiveBudget, "midi", cfg.MIDI.Source)
	err = sys.Engine.Run(ctx)

	stopLCD()
	<-lcdDone
	if _, lerr := board.LCD.Show([panel.Rows]string{"Exiting..."}); lerr != nil {
		debug.Warn("main", "lcd", "err", lerr)
	}
	return err
}

// followDevices reports hot-plug on the LCD and silences every channel
// when the input disconnects
func followDevices(w *midi.Watcher, sys *engine.System) {
	for ev := range w.Events() {
		switch ev.Type {
		case midi.DeviceConnected:
			sys.Display.ShowTimedMessage("MIDI "+ev.Name, deviceMessageTime)
		case midi.DeviceDisconnected:
			sys.Engine.Inputs().Push(panel.Input{Kind: panel.InputPanic})
			sys.Display.ShowTimedMessage("MIDI lost", deviceMessageTime)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func describe(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}
