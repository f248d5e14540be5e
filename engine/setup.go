package engine

import (
	"go-midicv/clock"
	"go-midicv/config"
	"go-midicv/panel"
	"go-midicv/sequencer"
	"go-midicv/state"
	"go-midicv/voice"
)

// System is a control loop with every part it drives
type System struct {
	Params    *state.Params
	Allocator *voice.Allocator
	Sequencer *sequencer.Sequencer
	Display   *panel.TextDisplay
	Panel     *panel.Panel
	Engine    *Engine
}

// Build wires allocator, sequencer, panel and engine on bank from cfg.
// opts are applied after the ones derived from cfg.
func Build(cfg *config.Config, clk clock.Clock, bank voice.Bank, opts ...Option) *System {
	v := cfg.Voices
	params := state.NewParams(v.LiveBudget, cfg.Tempo.BPM)

	alloc := voice.New(bank, params, clk,
		voice.WithTriggerWidth(cfg.TriggerWidth()),
		voice.WithPitchMapper(voice.PitchMapper{
			ReferenceNote:  v.ReferenceNote,
			FullScaleVolts: v.FullScaleVolts,
			MaxCode:        v.MaxCode,
		}),
	)
	seq := sequencer.New(params, alloc, sequencer.WithTempoRange(cfg.Tempo.MinBPM, cfg.Tempo.MaxBPM))
	display := panel.NewTextDisplay(clk)
	pnl := panel.New(seq, params, display)

	base := []Option{WithChannel(cfg.MIDI.Channel), WithBendRange(v.BendRange)}
	eng := New(clk, params, alloc, seq, pnl, append(base, opts...)...)

	return &System{
		Params:    params,
		Allocator: alloc,
		Sequencer: seq,
		Display:   display,
		Panel:     pnl,
		Engine:    eng,
	}
}
