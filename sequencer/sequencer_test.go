package sequencer

import (
	"testing"
	"time"

	"go-midicv/state"
)

type fakeOutputs struct {
	note    [state.NumChannels]uint8
	gate    [state.NumChannels]bool
	ons     [state.NumChannels]int
	offs    [state.NumChannels]int
	cleaned [][2]int
}

func (f *fakeOutputs) TurnOnChannel(ch int, note uint8) error {
	f.note[ch] = note
	f.gate[ch] = true
	f.ons[ch]++
	return nil
}

func (f *fakeOutputs) TurnOffChannel(ch int) error {
	f.gate[ch] = false
	f.offs[ch]++
	return nil
}

func (f *fakeOutputs) CleanChannels(from, to int) {
	f.cleaned = append(f.cleaned, [2]int{from, to})
	for ch := from; ch < to; ch++ {
		f.gate[ch] = false
	}
}

func newTestSequencer(live int) (*Sequencer, *fakeOutputs, *state.Params) {
	p := state.NewParams(live, 120)
	out := &fakeOutputs{}
	return New(p, out), out, p
}

// setChord writes notes into a step directly, bypassing the editor
func setChord(s *Sequencer, layer, step int, notes ...uint8) {
	st := &s.layers[layer-1].Steps[step]
	st.Fill(Reset)
	for i, n := range notes {
		st.Slots[i] = NoteSlot(n)
	}
	s.RecomputeLayout()
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func checkBudget(t *testing.T, s *Sequencer, p *state.Params) {
	t.Helper()
	total := p.LiveBudget
	for i := 0; i < p.MaxLayer; i++ {
		total += s.layers[i].VoicesUsed
	}
	if total > state.NumChannels {
		t.Fatalf("live %d + layer voices = %d channels, bank has %d", p.LiveBudget, total, state.NumChannels)
	}
}

func TestLayoutClampsLayerAtEndOfBank(t *testing.T) {
	s, _, p := newTestSequencer(6)
	setChord(s, 1, 0, 60, 64, 67, 71)

	l := s.Layer(1)
	if l.VoicesUsed != 2 {
		t.Errorf("layer 1 voices = %d, want 2", l.VoicesUsed)
	}
	if l.StartChannel != 6 {
		t.Errorf("layer 1 start = %d, want 6", l.StartChannel)
	}
	if p.MaxLayer != 1 {
		t.Errorf("max layer = %d, want 1", p.MaxLayer)
	}
	checkBudget(t, s, p)
}

func TestLayoutPartitionsContiguously(t *testing.T) {
	s, _, p := newTestSequencer(2)
	setChord(s, 1, 0, 60, 64)
	setChord(s, 2, 3, 48)
	setChord(s, 3, 0, 72, 76, 79)

	want := []struct{ start, voices int }{{2, 2}, {4, 1}, {5, 3}}
	for i, w := range want {
		l := s.Layer(i + 1)
		if l.StartChannel != w.start || l.VoicesUsed != w.voices {
			t.Errorf("layer %d = start %d voices %d, want %d/%d", i+1, l.StartChannel, l.VoicesUsed, w.start, w.voices)
		}
	}
	if p.MaxLayer != 3 {
		t.Errorf("max layer = %d, want 3", p.MaxLayer)
	}
}

func TestLayoutHoldsForEveryBudget(t *testing.T) {
	s, _, p := newTestSequencer(0)
	setChord(s, 1, 0, 60, 64, 67)
	setChord(s, 2, 0, 50, 53)
	setChord(s, 3, 5, 40, 43, 47)

	for _, n := range []int{0, 3, 8, 5, 1, 7, 2, 0} {
		s.SetLiveBudget(n)
		if p.LiveBudget != n {
			t.Fatalf("live budget = %d, want %d", p.LiveBudget, n)
		}
		checkBudget(t, s, p)
	}
}

func TestNoLayersWhenBankIsLive(t *testing.T) {
	s, _, p := newTestSequencer(state.NumChannels)
	if p.MaxLayer != 0 {
		t.Errorf("max layer = %d, want 0", p.MaxLayer)
	}
	p.CurrentLayer = 1
	s.SelectStep(0)
	if s.PressKey(60) {
		t.Error("edit accepted with no layer in range")
	}
}

func TestRatchetTieBridgesIntoNextStep(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	setChord(s, 1, 1, 62)
	s.layers[0].Steps[0].Ratchets = 4
	s.layers[0].Steps[0].Tie = true

	// 120 bpm: 125ms per step, 31.25ms per division
	s.Advance(0)
	if out.ons[0] != 1 || !out.gate[0] {
		t.Fatalf("step start: ons=%d gate=%v", out.ons[0], out.gate[0])
	}

	for _, at := range []int{16, 32, 47, 63, 79, 94, 110, 120} {
		s.Advance(ms(at))
	}
	if out.ons[0] != 4 {
		t.Errorf("pulses in step = %d, want 4", out.ons[0])
	}
	if out.offs[0] != 3 {
		t.Errorf("gate-offs in step = %d, want 3", out.offs[0])
	}
	if !out.gate[0] {
		t.Fatal("gate dropped on the tied final division")
	}

	s.Advance(ms(126))
	if s.layers[0].CurrentStep != 1 {
		t.Fatalf("current step = %d, want 1", s.layers[0].CurrentStep)
	}
	if out.offs[0] != 3 || !out.gate[0] {
		t.Errorf("gate closed across tied boundary: offs=%d gate=%v", out.offs[0], out.gate[0])
	}
	if out.ons[0] != 5 || out.note[0] != 62 {
		t.Errorf("next step: ons=%d note=%d, want 5 and 62", out.ons[0], out.note[0])
	}
}

func TestRatchetWithoutTieClosesEveryPulse(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	s.layers[0].Steps[0].Ratchets = 4

	s.Advance(0)
	for _, at := range []int{16, 32, 47, 63, 79, 94, 110, 120} {
		s.Advance(ms(at))
	}
	if out.ons[0] != 4 || out.offs[0] != 4 {
		t.Errorf("ons=%d offs=%d, want 4 and 4", out.ons[0], out.offs[0])
	}
	if out.gate[0] {
		t.Error("gate still on after final division")
	}
}

func TestLateIterationKeepsPulseOrder(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	s.layers[0].Steps[0].Ratchets = 2

	s.Advance(0)
	// one late iteration covers the first off and the second pulse
	s.Advance(ms(70))
	if out.ons[0] != 2 || out.offs[0] != 1 || !out.gate[0] {
		t.Errorf("ons=%d offs=%d gate=%v, want 2, 1, on", out.ons[0], out.offs[0], out.gate[0])
	}
	en, dis := s.layers[0].Steps[0].Pulses()
	if en != 2 || dis != 1 {
		t.Errorf("pulses = %d/%d, want 2/1", en, dis)
	}
}

func TestUntiedStepReleasesAtBoundary(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	setChord(s, 1, 1, 62)

	s.Advance(0)
	s.Advance(ms(126))
	if out.offs[0] != 1 {
		t.Errorf("offs = %d, want 1", out.offs[0])
	}
	if !out.gate[0] || out.note[0] != 62 {
		t.Errorf("gate=%v note=%d, want on 62", out.gate[0], out.note[0])
	}
}

func TestSilencedForgetsHeldChannels(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	setChord(s, 1, 1, 62)

	s.Advance(0)
	if !s.Holding(0) {
		t.Fatal("step 0 not held")
	}
	out.TurnOffChannel(0)
	s.Silenced()
	if s.Holding(0) {
		t.Fatal("still holding after Silenced")
	}

	s.Advance(ms(126))
	if out.offs[0] != 1 {
		t.Errorf("offs = %d, want only the external one", out.offs[0])
	}
	if !out.gate[0] || out.note[0] != 62 || !s.Holding(0) {
		t.Errorf("gate=%v note=%d, want on 62", out.gate[0], out.note[0])
	}
}

func TestResetWrapsToStepZero(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	setChord(s, 1, 1, 62)
	setChord(s, 1, 2, 64)

	if n := s.Layer(1).PatternLength(); n != 3 {
		t.Fatalf("pattern length = %d, want 3", n)
	}

	s.Advance(0)
	want := []int{1, 2, 0, 1}
	for i, w := range want {
		s.Advance(ms(125*(i+1) + 1))
		if got := s.layers[0].CurrentStep; got != w {
			t.Fatalf("after %d boundaries step = %d, want %d", i+1, got, w)
		}
	}
	if out.note[0] != 62 {
		t.Errorf("note = %d, want 62", out.note[0])
	}
}

func TestRestStepIsSilent(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	s.layers[0].Steps[1].Fill(Rest)
	setChord(s, 1, 2, 64)

	s.Advance(0)
	s.Advance(ms(126))
	if out.gate[0] {
		t.Fatal("rest step left the gate on")
	}
	ons := out.ons[0]
	for _, at := range []int{150, 200, 249} {
		s.Advance(ms(at))
	}
	if out.ons[0] != ons || out.gate[0] {
		t.Error("rest step sounded")
	}
	s.Advance(ms(251))
	if !out.gate[0] || out.note[0] != 64 {
		t.Errorf("step after rest: gate=%v note=%d", out.gate[0], out.note[0])
	}
}

func TestNarrowerChordTurnsOffSpareChannels(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60, 64, 67)
	setChord(s, 1, 1, 62)
	s.layers[0].Steps[0].Tie = true

	s.Advance(0)
	if !out.gate[1] || !out.gate[2] {
		t.Fatal("chord not sounding")
	}
	s.Advance(ms(126))
	if !out.gate[0] || out.gate[1] || out.gate[2] {
		t.Errorf("gates = %v, want only channel 0", out.gate[:3])
	}
}

func TestLayersShareTheBeat(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	setChord(s, 1, 1, 61)
	setChord(s, 2, 0, 70)

	s.Advance(0)
	if out.note[0] != 60 || out.note[1] != 70 {
		t.Fatalf("notes = %d %d", out.note[0], out.note[1])
	}
	s.Advance(ms(126))
	// layer 2 is one step long and repeats
	if out.note[0] != 61 || out.ons[1] != 2 {
		t.Errorf("note0=%d ons1=%d", out.note[0], out.ons[1])
	}
}

func TestSyncLayersRestartsAtStepZero(t *testing.T) {
	s, out, _ := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	setChord(s, 1, 1, 62)
	setChord(s, 1, 2, 64)

	s.Advance(0)
	s.Advance(ms(126))
	s.Advance(ms(251))
	if s.layers[0].CurrentStep != 2 {
		t.Fatalf("step = %d, want 2", s.layers[0].CurrentStep)
	}

	s.SyncLayers()
	s.Advance(ms(260))
	if s.layers[0].CurrentStep != 0 || out.note[0] != 60 {
		t.Errorf("after sync: step %d note %d", s.layers[0].CurrentStep, out.note[0])
	}
	// the beat restarted at the sync
	s.Advance(ms(380))
	if s.layers[0].CurrentStep != 0 {
		t.Error("advanced before a full beat after sync")
	}
	s.Advance(ms(386))
	if s.layers[0].CurrentStep != 1 {
		t.Error("did not advance a beat after sync")
	}
}

func TestSetLiveBudgetHandsOverChannels(t *testing.T) {
	s, out, p := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	s.Advance(0)
	if !out.gate[0] {
		t.Fatal("layer not sounding on channel 0")
	}

	s.SetLiveBudget(2)
	if out.gate[0] {
		t.Error("channel 0 still driven by the sequencer after joining the live range")
	}
	if got := s.Layer(1).StartChannel; got != 2 {
		t.Errorf("layer 1 start = %d, want 2", got)
	}
	if s.Owner(2) != 1 || s.Owner(0) != 0 {
		t.Errorf("owners: ch2=%d ch0=%d", s.Owner(2), s.Owner(0))
	}

	s.SetLiveBudget(1)
	if len(out.cleaned) != 1 || out.cleaned[0] != [2]int{1, 2} {
		t.Errorf("cleaned = %v, want [[1 2]]", out.cleaned)
	}
	if p.LiveBudget != 1 {
		t.Errorf("live budget = %d", p.LiveBudget)
	}
}

func TestSetLiveBudgetClampsCurrentLayer(t *testing.T) {
	s, _, p := newTestSequencer(0)
	setChord(s, 1, 0, 60, 64, 67, 71)
	setChord(s, 2, 0, 50, 53, 57)
	p.CurrentLayer = 3

	s.SetLiveBudget(4)
	if p.MaxLayer != 1 || p.CurrentLayer != 1 {
		t.Errorf("max %d current %d, want 1 and 1", p.MaxLayer, p.CurrentLayer)
	}
}

func TestLayerShiftReleasesMovedChannels(t *testing.T) {
	s, out, p := newTestSequencer(0)
	setChord(s, 1, 0, 60)
	setChord(s, 2, 0, 70)
	s.Advance(0)
	if !out.gate[0] || !out.gate[1] {
		t.Fatal("layers not sounding")
	}

	p.CurrentLayer = 1
	s.SelectStep(0)
	s.PressKey(60)
	if !s.PressKey(64) {
		t.Fatal("append rejected")
	}
	if got := s.Layer(2).StartChannel; got != 2 {
		t.Fatalf("layer 2 start = %d, want 2", got)
	}
	if out.gate[1] {
		t.Error("layer 2's old channel still on")
	}
	if !out.gate[0] || out.offs[0] != 0 {
		t.Error("unmoved channel was disturbed")
	}
}

func TestSetBPMClamps(t *testing.T) {
	p := state.NewParams(0, 120)
	s := New(p, &fakeOutputs{}, WithTempoRange(40, 200))
	s.SetBPM(10)
	if p.BPM != 40 {
		t.Errorf("bpm = %v, want 40", p.BPM)
	}
	s.SetBPM(999)
	if p.BPM != 200 {
		t.Errorf("bpm = %v, want 200", p.BPM)
	}
	s.SetBPM(133)
	if p.BPM != 133 {
		t.Errorf("bpm = %v, want 133", p.BPM)
	}
}
