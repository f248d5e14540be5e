package hw

import (
	"bytes"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"go-midicv/voice"
)

func TestDACSetWritesAndUpdates(t *testing.T) {
	rec := &i2ctest.Record{}
	dac := NewDAC(rec, DefaultDACAddr)

	if err := dac.Set(2, 0xABC); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(rec.Ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(rec.Ops))
	}
	op := rec.Ops[0]
	if op.Addr != DefaultDACAddr {
		t.Errorf("addr %#x, want %#x", op.Addr, DefaultDACAddr)
	}
	if want := []byte{0x32, 0xAB, 0xC0}; !bytes.Equal(op.W, want) {
		t.Errorf("frame %x, want %x", op.W, want)
	}
}

func TestDACClampsAndRejectsChannels(t *testing.T) {
	rec := &i2ctest.Record{}
	dac := NewDAC(rec, DefaultDACAddr)

	if err := dac.Set(8, 100); err == nil {
		t.Error("channel 8 accepted")
	}
	if len(rec.Ops) != 0 {
		t.Fatalf("rejected write reached the bus: %v", rec.Ops)
	}

	dac.Set(0, 0xFFFF)
	if want := []byte{0x30, 0xFF, 0xF0}; !bytes.Equal(rec.Ops[0].W, want) {
		t.Errorf("frame %x, want %x", rec.Ops[0].W, want)
	}
}

func TestDACSetAllUpdatesOnLastFrame(t *testing.T) {
	rec := &i2ctest.Record{}
	dac := NewDAC(rec, DefaultDACAddr)

	err := dac.SetAll([]voice.PitchWrite{{Channel: 0, Value: 0x100}, {Channel: 1, Value: 0x200}, {Channel: 3, Value: 0x300}})
	if err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	want := [][]byte{
		{0x00, 0x10, 0x00},
		{0x01, 0x20, 0x00},
		{0x23, 0x30, 0x00},
	}
	if len(rec.Ops) != len(want) {
		t.Fatalf("got %d ops, want %d", len(rec.Ops), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(rec.Ops[i].W, w) {
			t.Errorf("op %d: %x, want %x", i, rec.Ops[i].W, w)
		}
	}
}

func TestDACZero(t *testing.T) {
	rec := &i2ctest.Record{}
	if err := NewDAC(rec, DefaultDACAddr).Zero(); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != DACChannels {
		t.Fatalf("got %d ops, want %d", len(rec.Ops), DACChannels)
	}
	last := rec.Ops[DACChannels-1].W
	if last[0] != 0x27 || last[1] != 0 || last[2] != 0 {
		t.Errorf("last frame %x, want 270000", last)
	}
}
