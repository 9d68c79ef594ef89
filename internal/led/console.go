package led

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/coreman2200/funtimes-aurora/internal/render"
)

// Console draws each ring as a row of colored dots. It stands in for the
// hardware when no SPI port is available.
type Console struct {
	W     io.Writer
	Every int // draw one frame in Every; terminals cannot keep up with 200 FPS

	brightness uint8
	frames     int
}

func NewConsole(w io.Writer, every int, brightness uint8) *Console {
	if every < 1 {
		every = 1
	}
	return &Console{W: w, Every: every, brightness: brightness}
}

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Width(7)

func (c *Console) Show(primary, secondary []render.RGB) error {
	c.frames++
	if (c.frames-1)%c.Every != 0 {
		return nil
	}
	_, err := fmt.Fprintf(c.W, "%s%s\n%s%s\n",
		labelStyle.Render("outer"), c.Line(primary),
		labelStyle.Render("inner"), c.Line(secondary))
	return err
}

// Line renders one ring at the current brightness.
func (c *Console) Line(frame []render.RGB) string {
	var b strings.Builder
	for _, px := range frame {
		if c.brightness != 255 {
			px = px.Scale(c.brightness)
		}
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(px.Colorful().Hex()))
		b.WriteString(st.Render("●"))
	}
	return b.String()
}

func (c *Console) SetBrightness(b uint8) { c.brightness = b }

func (c *Console) Close() error { return nil }
