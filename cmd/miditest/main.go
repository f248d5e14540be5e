package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-midicv/config"
	"go-midicv/hw"
	"go-midicv/midi"
	"go-midicv/sequencer"
	"go-midicv/state"
	"go-midicv/voice"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		err = monitor(os.Args[2:])
	case "gates":
		err = testGates(os.Args[2:])
	case "dac":
		err = testDAC(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("go-midicv test scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                     - List MIDI inputs and serial ports")
	fmt.Println("  monitor [-serial dev] [name]")
	fmt.Println("                           - Print incoming MIDI events")
	fmt.Println("  gates [-config f]        - Walk a gate and trigger across every channel")
	fmt.Println("  dac [-config f] [note]   - Hold every pitch output at a note (default octave ladder)")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ch := make(chan []string, 1)
	go func() {
		ch <- midi.InputNames()
	}()

	select {
	case names := <-ch:
		for i, n := range names {
			fmt.Printf("  %d: %s\n", i, n)
		}
		if pick, ok := midi.PickPort(names, ""); ok {
			fmt.Printf("  default: %s\n", pick)
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! The MIDI driver is not answering.")
	}

	fmt.Println("\n=== Serial Ports ===")
	ports, err := midi.SerialPorts()
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}
}

func monitor(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	device := fs.String("serial", "", "read DIN MIDI from this serial device")
	baud := fs.Int("baud", midi.DINBaud, "serial baud rate")
	fs.Parse(args)

	var src midi.Source
	if *device != "" {
		src = midi.NewSerialSource(*device, *baud)
	} else {
		names := midi.InputNames()
		name, ok := midi.PickPort(names, fs.Arg(0))
		if !ok {
			return fmt.Errorf("no MIDI input matching %q in %v", fs.Arg(0), names)
		}
		src = midi.NewPortSource(name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := midi.NewQueue()
	errc := make(chan error, 1)
	go func() { errc <- src.Run(ctx, q) }()

	fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", src.Name())
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	var events []midi.Event
	for {
		select {
		case err := <-errc:
			return err
		case <-ticker.C:
			events = q.Drain(events[:0])
			for _, ev := range events {
				fmt.Printf("[%s] %-10s %s\n", time.Now().Format("15:04:05.000"), kindName(ev.Kind()), ev)
			}
		}
	}
}

func kindName(k midi.Kind) string {
	switch k {
	case midi.KindNoteOn:
		return "note-on"
	case midi.KindNoteOff:
		return "note-off"
	case midi.KindPitchBend:
		return "bend"
	case midi.KindAllNotesOff:
		return "all-off"
	}
	return "other"
}

func openBoard(args []string, name string) (*hw.Board, *config.Config, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "config file")
	fs.Parse(args)

	cfg, err := config.Load()
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	board, err := hw.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return board, cfg, fs, nil
}

func testGates(args []string) error {
	board, _, _, err := openBoard(args, "gates")
	if err != nil {
		return err
	}
	defer board.Close()

	for ch := 0; ch < state.NumChannels; ch++ {
		fmt.Printf("channel %d: gate + trigger\n", ch+1)
		if err := board.Bank.SetGate(ch, true); err != nil {
			return err
		}
		board.Bank.SetTrigger(ch, true)
		time.Sleep(2 * time.Millisecond)
		board.Bank.SetTrigger(ch, false)
		time.Sleep(300 * time.Millisecond)
		board.Bank.SetGate(ch, false)
	}
	fmt.Println("Done!")
	return nil
}

func testDAC(args []string) error {
	board, cfg, fs, err := openBoard(args, "dac")
	if err != nil {
		return err
	}
	defer board.Close()

	pm := voice.PitchMapper{
		ReferenceNote:  cfg.Voices.ReferenceNote,
		FullScaleVolts: cfg.Voices.FullScaleVolts,
		MaxCode:        cfg.Voices.MaxCode,
	}

	set := func(note uint8) error {
		writes := make([]voice.PitchWrite, state.NumChannels)
		for ch := range writes {
			writes[ch] = voice.PitchWrite{Channel: ch, Value: pm.Value(note, 0)}
		}
		fmt.Printf("%s: %.3f V (code %d)\n", sequencer.NoteName(note), pm.Volts(note, 0), writes[0].Value)
		return board.Bank.SetPitches(writes)
	}

	if fs.NArg() > 0 {
		n, err := strconv.Atoi(fs.Arg(0))
		if err != nil || n < 0 || n > 127 {
			return fmt.Errorf("note must be 0-127, got %q", fs.Arg(0))
		}
		if err := set(uint8(n)); err != nil {
			return err
		}
		fmt.Println("Press Enter to finish...")
		fmt.Scanln()
		return nil
	}

	for note := pm.ReferenceNote; note <= 127 && pm.Value(uint8(note), 0) < pm.MaxCode; note += 12 {
		if err := set(uint8(note)); err != nil {
			return err
		}
		time.Sleep(time.Second)
	}
	fmt.Println("Done!")
	return nil
}
