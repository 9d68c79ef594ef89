package render

import (
	"fmt"

	"github.com/coreman2200/funtimes-aurora/internal/layout"
)

// Compositor turns the cell field into colors for the primary ring.
type Compositor struct {
	Ring    layout.Ring
	Palette *Palette
	// Floor is the minimum red and green output; cheap PWM drivers flicker
	// below it. Blue is left alone.
	Floor    uint8
	PlasmaY  int
	DimCurve bool

	// Prev holds the blended value rendered for each cell last frame.
	Prev []int
}

func NewCompositor(ring layout.Ring, p *Palette, floor uint8) (*Compositor, error) {
	if ring.Count <= 0 {
		return nil, fmt.Errorf("compositor: ring %q has no LEDs", ring.Name)
	}
	if p == nil {
		return nil, fmt.Errorf("compositor: nil palette")
	}
	return &Compositor{
		Ring:     ring,
		Palette:  p,
		Floor:    floor,
		PlasmaY:  1,
		DimCurve: true,
		Prev:     make([]int, ring.Count),
	}, nil
}

// Smooth averages cell i with its wraparound neighbors, capped at 255.
func (c *Compositor) Smooth(cells []int, i int) int {
	l, r := c.Ring.Neighbors(i)
	v := (cells[i] + cells[l] + cells[r]) / 3
	if v > 255 {
		v = 255
	}
	return v
}

// Render writes one color per cell into dst and updates Prev.
func (c *Compositor) Render(cells []int, frame uint64, dst []RGB) {
	for i := range dst {
		v := (c.Prev[i] + c.Smooth(cells, i)) / 2
		c.Prev[i] = v

		color := c.Palette.At(clampByte(v))
		p := Plasma(frame, i, c.PlasmaY)
		if c.DimCurve {
			p = Dim8Video(p)
		}
		color = color.ScaleVideo(p)

		if color.R < c.Floor {
			color.R = c.Floor
		}
		if color.G < c.Floor {
			color.G = c.Floor
		}
		dst[i] = color
	}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
