package theme

import (
	"strings"
	"testing"
)

func TestPlasmaLoads(t *testing.T) {
	p := Plasma()
	if p.Name != "plasma" || p.Len() != 11 {
		t.Fatalf("got %q with %d colors", p.Name, p.Len())
	}
}

func TestParseGPL(t *testing.T) {
	src := "GIMP Palette\nName: two\nColumns: 2\n# comment\n0 0 0 black\n200 100 50 brown\nnot a color\n"
	p, err := ParseGPL(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "two" || p.Len() != 2 {
		t.Fatalf("got %+v", p)
	}
	if r, g, b := p.Lookup(0.5).RGB255(); r != 100 || g != 50 || b != 25 {
		t.Errorf("Lookup(0.5) = %d %d %d", r, g, b)
	}
	if got := p.Lookup(2); got != p.Stops[1] {
		t.Errorf("Lookup(2) = %v", got)
	}
	if got := p.Lookup(-1).Hex(); got != "#000000" {
		t.Errorf("Lookup(-1) = %s", got)
	}

	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n300 0 0 too bright\n")); err == nil {
		t.Error("empty palette accepted")
	}
}

func TestLoadFallsBackToBuiltIn(t *testing.T) {
	th := Load("/does/not/exist.gpl")
	if th.Palette.Name != "plasma" {
		t.Errorf("palette %q", th.Palette.Name)
	}
}
