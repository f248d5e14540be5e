package theme

import (
	"github.com/charmbracelet/lipgloss"

	"go-midicv/debug"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Channel strip
	GateOn  rune // ● gate open
	GateOff rune // ○ gate closed
	Trigger rune // ▲ trigger pulse
	NoTrig  rune // space

	// Step grid
	StepNote  rune // ■ has notes
	StepRest  rune // · rest
	StepReset rune // | pattern wraps here
	StepPast  rune // - past the pattern length
	Playhead  rune // ▶ current step
	Cursor    rune // ◆ selected for editing
	Tie       rune // ~ tied into the next step
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			GateOn:  '●',
			GateOff: '○',
			Trigger: '▲',
			NoTrig:  ' ',

			StepNote:  '■',
			StepRest:  '·',
			StepReset: '|',
			StepPast:  '-',
			Playhead:  '▶',
			Cursor:    '◆',
			Tie:       '~',
		},
	}
}

// Load builds a theme from a palette file, falling back to the built-in
// palette when path is empty or unreadable.
func Load(path string) *Theme {
	if path == "" {
		return New(Plasma())
	}
	p, err := LoadGPL(path)
	if err != nil {
		debug.Warn("theme", "palette not loaded, using built-in", "path", path, "err", err)
		return New(Plasma())
	}
	return New(p)
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.Color(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Clamped().Hex())
}

// Layer gives each sequencer layer its own color, layer 0 (live) included
func (t *Theme) Layer(layer, layers int) lipgloss.Color {
	if layer <= 0 || layers <= 0 {
		return t.Success()
	}
	return t.Color(0.3 + 0.5*float64(layer-1)/float64(layers))
}
