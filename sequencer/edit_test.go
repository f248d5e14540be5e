package sequencer

import "testing"

func editing(t *testing.T, live, step int) (*Sequencer, *fakeOutputs) {
	t.Helper()
	s, out, p := newTestSequencer(live)
	p.CurrentLayer = 1
	s.SelectStep(step)
	if !s.IsAcceptingInput() {
		t.Fatal("not accepting input")
	}
	return s, out
}

func TestEditingIgnoredWithoutSelection(t *testing.T) {
	s, _, p := newTestSequencer(2)

	if s.IsAcceptingInput() || s.PressKey(60) {
		t.Error("edit accepted in the live view")
	}

	p.CurrentLayer = 1
	before := s.Layers()
	ops := map[string]bool{
		"press":   s.PressKey(60),
		"rest":    s.SetRest(0),
		"reset":   s.SetReset(0),
		"ratchet": s.CycleRatchet(0),
		"tie":     s.ToggleTie(0),
	}
	for name, ok := range ops {
		if ok {
			t.Errorf("%s accepted with no step selected", name)
		}
	}
	if s.Layers() != before {
		t.Error("layers changed by ignored edits")
	}

	s.SelectStep(3)
	s.Deselect()
	if s.IsAcceptingInput() || s.SelectedStep() != -1 {
		t.Error("still editing after deselect")
	}
}

func TestFirstKeyReplacesThenBuildsChord(t *testing.T) {
	s, _ := editing(t, 0, 4)

	for _, n := range []uint8{60, 64, 67} {
		if !s.PressKey(n) {
			t.Fatalf("key %d rejected", n)
		}
	}
	st := s.Layer(1).Steps[4]
	if st.Width() != 3 || st.Slots[2] != NoteSlot(67) || st.Slots[3] != Reset {
		t.Fatalf("slots = %v", st.Slots)
	}
	if s.Layer(1).VoicesUsed != 3 {
		t.Errorf("voices = %d, want 3", s.Layer(1).VoicesUsed)
	}

	s.SelectStep(4)
	s.PressKey(72)
	st = s.Layer(1).Steps[4]
	if st.Width() != 1 || st.Slots[0] != NoteSlot(72) {
		t.Errorf("reselected step = %v, want single 72", st.Slots)
	}
	if s.Layer(1).VoicesUsed != 1 {
		t.Errorf("voices = %d, want 1", s.Layer(1).VoicesUsed)
	}
}

func TestPressKeyRejectsOverBudget(t *testing.T) {
	s, _ := editing(t, 6, 0)

	if !s.PressKey(60) || !s.PressKey(62) {
		t.Fatal("chord of two rejected with two free channels")
	}
	if s.PressKey(64) {
		t.Error("third voice accepted with six live channels")
	}
	if s.PressKey(62) {
		t.Error("duplicate note accepted")
	}
	if w := s.Layer(1).Steps[0].Width(); w != 2 {
		t.Errorf("width = %d, want 2", w)
	}
}

func TestPressKeyCountsOtherLayers(t *testing.T) {
	s, _, p := newTestSequencer(4)
	setChord(s, 2, 0, 50, 53, 57)
	p.CurrentLayer = 1
	s.SelectStep(0)

	if !s.PressKey(60) {
		t.Fatal("single note rejected with one channel free")
	}
	if s.PressKey(64) {
		t.Error("chord accepted past the bank")
	}
}

func TestPressKeyOnRestStartsChord(t *testing.T) {
	s, _ := editing(t, 0, 2)
	s.PressKey(60)
	s.SetRest(2)
	s.PressKey(65)
	st := s.Layer(1).Steps[2]
	if st.Slots[0] != NoteSlot(65) || st.Slots[1] != Reset {
		t.Errorf("slots = %v", st.Slots)
	}
}

func TestResetThenRestRoundTrip(t *testing.T) {
	s, _ := editing(t, 0, 1)
	s.PressKey(60)
	s.PressKey(63)
	s.PressKey(67)

	s.SetReset(1)
	s.SetRest(1)
	st := s.Layer(1).Steps[1]
	for i, slot := range st.Slots {
		if slot != Rest {
			t.Fatalf("slot %d = %v, want rest", i, slot)
		}
	}
	if s.Layer(1).VoicesUsed != 0 {
		t.Errorf("voices = %d, want 0", s.Layer(1).VoicesUsed)
	}
}

func TestCycleRatchetWraps(t *testing.T) {
	s, _ := editing(t, 0, 0)
	want := []int{2, 3, 4, 1, 2}
	for _, w := range want {
		s.CycleRatchet(0)
		if got := s.Layer(1).Steps[0].Ratchets; got != w {
			t.Fatalf("ratchets = %d, want %d", got, w)
		}
	}
}

func TestToggleTie(t *testing.T) {
	s, _ := editing(t, 0, 5)
	s.ToggleTie(5)
	if !s.Layer(1).Steps[5].Tie {
		t.Fatal("tie not set")
	}
	s.ToggleTie(5)
	if s.Layer(1).Steps[5].Tie {
		t.Fatal("tie not cleared")
	}
}

func TestResetAllClearsAndSilences(t *testing.T) {
	s, out, p := newTestSequencer(0)
	setChord(s, 1, 0, 60, 64)
	setChord(s, 2, 0, 70)
	s.Advance(0)

	s.ResetAll()
	for ch := 0; ch < 3; ch++ {
		if out.gate[ch] {
			t.Errorf("channel %d still on", ch)
		}
	}
	for i := 1; i <= NumLayers; i++ {
		l := s.Layer(i)
		if l.VoicesUsed != 0 || l.CurrentStep != 0 || !l.Steps[0].IsReset() {
			t.Errorf("layer %d not cleared", i)
		}
	}
	if p.MaxLayer != NumLayers {
		t.Errorf("max layer = %d", p.MaxLayer)
	}
}

func TestSlotString(t *testing.T) {
	cases := map[Slot]string{
		NoteSlot(60): "C4",
		NoteSlot(61): "C#4",
		NoteSlot(21): "A0",
		Rest:         "rest",
		Reset:        "reset",
	}
	for slot, want := range cases {
		if got := slot.String(); got != want {
			t.Errorf("%#v = %q, want %q", slot, got, want)
		}
	}
}
