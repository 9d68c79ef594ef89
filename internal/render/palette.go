package render

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette maps an intensity 0..255 onto a ramp through its anchor colors.
// 0 is the first anchor and 255 the last; in between is linear RGB blending.
type Palette struct {
	Anchors []RGB
	lut     [256]RGB
}

func NewPalette(anchors ...RGB) (*Palette, error) {
	if len(anchors) < 2 {
		return nil, fmt.Errorf("palette needs at least 2 anchors, got %d", len(anchors))
	}
	p := &Palette{Anchors: append([]RGB(nil), anchors...)}
	cs := make([]colorful.Color, len(anchors))
	for i, a := range anchors {
		cs[i] = a.Colorful()
	}
	last := len(cs) - 1
	for i := range p.lut {
		pos := float64(i) * float64(last) / 255
		seg := int(pos)
		if seg >= last {
			seg = last - 1
		}
		p.lut[i] = FromColorful(cs[seg].BlendRgb(cs[seg+1], pos-float64(seg)))
	}
	return p, nil
}

// ParsePalette builds a palette from #rrggbb anchors.
func ParsePalette(hex []string) (*Palette, error) {
	anchors := make([]RGB, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette anchor %d: %w", i, err)
		}
		anchors[i] = FromColorful(c)
	}
	return NewPalette(anchors...)
}

func (p *Palette) At(v uint8) RGB { return p.lut[v] }
