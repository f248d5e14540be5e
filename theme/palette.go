package theme

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/lucasb-eyer/go-colorful"
)

//go:embed plasma.gpl
var plasmaGPL []byte

// Palette is an ordered list of gradient stops
type Palette struct {
	Name  string
	Stops []colorful.Color
}

// Plasma is the built-in palette
func Plasma() *Palette {
	p, err := ParseGPL(bytes.NewReader(plasmaGPL))
	if err != nil {
		panic("built-in palette: " + err.Error())
	}
	return p
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.NotFound), fmsg.WithDesc("open palette", "Palette "+path+" could not be opened"))
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("parse palette", "Palette "+path+" is not a GIMP palette"))
	}
	return p, nil
}

// ParseGPL reads GIMP palette text. Only the Name header is kept; rows
// that do not start with three 0-255 components are skipped.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if name, ok := strings.CutPrefix(line, "Name:"); ok {
			p.Name = strings.TrimSpace(name)
			continue
		}
		if c, ok := parseStop(line); ok {
			p.Stops = append(p.Stops, c)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("read palette"))
	}
	if len(p.Stops) == 0 {
		return nil, fault.New("no colors found in palette", ftag.With(ftag.InvalidArgument))
	}
	return p, nil
}

func parseStop(line string) (colorful.Color, bool) {
	var r, g, b int
	if n, _ := fmt.Sscan(line, &r, &g, &b); n != 3 {
		return colorful.Color{}, false
	}
	for _, v := range [...]int{r, g, b} {
		if v < 0 || v > 255 {
			return colorful.Color{}, false
		}
	}
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, true
}

// Len is the number of stops
func (p *Palette) Len() int { return len(p.Stops) }

// Lookup blends the two stops around pos, a position in [0, 1] along the
// gradient. Out of range positions clamp to the end stops.
func (p *Palette) Lookup(pos float64) colorful.Color {
	last := len(p.Stops) - 1
	switch {
	case pos <= 0 || last == 0:
		return p.Stops[0]
	case pos >= 1:
		return p.Stops[last]
	}
	seg := pos * float64(last)
	lo := int(seg)
	return p.Stops[lo].BlendRgb(p.Stops[lo+1], seg-float64(lo))
}
