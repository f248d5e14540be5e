package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"go-midicv/panel"
	"go-midicv/sequencer"
	"go-midicv/theme"
)

const cellWidth = 5

// ChannelView is one output channel as the simulator shows it
type ChannelView struct {
	Index   int
	Note    int // -1 if the channel never sounded
	Pitch   uint16
	Gate    bool
	Trigger bool
	Owner   int // sequencer layer, 0 when live or unused
	Live    bool
}

// RenderChannels draws the channel strips side by side
func RenderChannels(chs []ChannelView, th *theme.Theme) string {
	cell := lipgloss.NewStyle().Width(cellWidth)
	rows := make([]strings.Builder, 5)
	for _, c := range chs {
		color := th.Muted()
		owner := "-"
		switch {
		case c.Live:
			color, owner = th.Layer(0, 0), "live"
		case c.Owner > 0:
			color, owner = th.Layer(c.Owner, sequencer.NumLayers), fmt.Sprintf("L%d", c.Owner)
		}
		st := cell.Foreground(color)

		note := "--"
		if c.Note >= 0 {
			note = sequencer.NoteName(uint8(c.Note))
		}
		gate := th.Symbols.GateOff
		if c.Gate {
			gate = th.Symbols.GateOn
		}
		trig := th.Symbols.NoTrig
		if c.Trigger {
			trig = th.Symbols.Trigger
		}

		rows[0].WriteString(st.Render(fmt.Sprintf("CH%d", c.Index+1)))
		rows[1].WriteString(st.Render(note))
		rows[2].WriteString(st.Render(fmt.Sprintf("%c %c", gate, trig)))
		rows[3].WriteString(cell.Foreground(th.Muted()).Render(fmt.Sprintf("%4d", c.Pitch)))
		rows[4].WriteString(st.Render(owner))
	}
	lines := make([]string, len(rows))
	for i := range rows {
		lines[i] = rows[i].String()
	}
	return strings.Join(lines, "\n")
}

// RenderLCD frames the panel display text
func RenderLCD(lines [panel.Rows]string, th *theme.Theme) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Muted()).
		Foreground(th.Success()).
		Background(th.BG()).
		Padding(0, 1)
	return box.Render(lines[0] + "\n" + lines[1])
}

// RenderStepGrid draws a layer's steps with the playhead and, when
// selected >= 0, the edit cursor. A second row shows ratchets and ties.
func RenderStepGrid(l *sequencer.Layer, selected int, th *theme.Theme) string {
	sym := th.Symbols
	length := l.PatternLength()

	var top, bottom strings.Builder
	for i := range l.Steps {
		st := &l.Steps[i]
		r := sym.StepNote
		color := th.FG()
		switch {
		case i == selected:
			r, color = sym.Cursor, th.Cursor()
		case i == l.CurrentStep:
			r, color = sym.Playhead, th.Active()
		case i == length && st.IsReset():
			r, color = sym.StepReset, th.Warning()
		case i >= length:
			r, color = sym.StepPast, th.Muted()
		case st.IsRest():
			r, color = sym.StepRest, th.Muted()
		}
		top.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(r)))
		top.WriteByte(' ')

		mark := ' '
		if st.Ratchets > 1 && i < length {
			mark = rune('0' + st.Ratchets)
		}
		if st.Tie && i < length {
			mark = sym.Tie
		}
		bottom.WriteRune(mark)
		bottom.WriteByte(' ')
	}
	return top.String() + "\n" + lipgloss.NewStyle().Foreground(th.Muted()).Render(bottom.String())
}

// StepDetail describes one step in plain text: its chord, ratchets and tie
func StepDetail(st *sequencer.Step) string {
	var parts []string
	switch {
	case st.IsReset():
		parts = append(parts, "reset")
	case st.IsRest():
		parts = append(parts, "rest")
	default:
		for _, s := range st.Slots[:st.Width()] {
			parts = append(parts, s.String())
		}
	}
	if st.Ratchets > 1 {
		parts = append(parts, fmt.Sprintf("x%d", st.Ratchets))
	}
	if st.Tie {
		parts = append(parts, "tie")
	}
	return strings.Join(parts, " ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []key.Binding
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			if !k.Enabled() {
				continue
			}
			h := k.Help()
			lines = append(lines, fmt.Sprintf("  %-12s %s", h.Key, h.Desc))
		}
	}
	return strings.Join(lines, "\n")
}
