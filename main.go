package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"

	"go-midicv/clock"
	"go-midicv/config"
	"go-midicv/debug"
	"go-midicv/engine"
	"go-midicv/hw"
	"go-midicv/midi"
	"go-midicv/theme"
	"go-midicv/tui"
)

func main() {
	configPath := flag.String("config", "", "config file, .json or .yaml (default ~/.config/go-midicv/config.json)")
	debugPath := flag.String("debug", "", "write a debug log to this file")
	port := flag.String("port", "", "MIDI input to watch for (name substring)")
	flag.Parse()

	if *debugPath != "" {
		if err := debug.Enable(*debugPath); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error: %s\n", describe(err))
		os.Exit(1)
	}
	if *port != "" {
		cfg.MIDI.Source = config.SourcePort
		cfg.MIDI.Port = *port
	}

	// Simulated board: the channel bank lives in memory
	bank := hw.NewMemoryBank()
	sys := engine.Build(cfg, clock.NewMonotonic(), bank)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []tui.Option{
		tui.WithChannel(cfg.MIDI.Channel),
		tui.WithOctave(cfg.UI.BaseOctave),
	}
	if src := midi.NewSource(string(cfg.MIDI.Source), cfg.MIDI.Port, cfg.MIDI.SerialDevice, cfg.MIDI.Baud); src != nil {
		go func() {
			if err := src.Run(ctx, sys.Engine.MIDI()); err != nil {
				debug.Error("main", "midi source stopped", "source", src.Name(), "err", err)
			}
		}()
		opts = append(opts, tui.WithSource(src.Name()))
		if w, ok := src.(*midi.Watcher); ok {
			opts = append(opts, tui.WithWatcher(w))
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sys.Engine.Run(ctx)
	}()
	opts = append(opts, tui.WithDone(done))

	m := tui.NewModel(sys, bank, theme.Load(cfg.UI.Palette), opts...)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err = p.Run()
	cancel()
	<-done
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// describe prefers the user-facing message attached to err
func describe(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}
