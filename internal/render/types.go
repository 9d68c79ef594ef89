package render

import "github.com/lucasb-eyer/go-colorful"

// RGB is one LED's color, 8 bits per channel, in logical (not wire) order.
type RGB struct{ R, G, B uint8 }

func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}

// Bytes packs a frame as R,G,B triples.
func Bytes(frame []RGB, dst []byte) []byte {
	if cap(dst) < len(frame)*3 {
		dst = make([]byte, len(frame)*3)
	}
	dst = dst[:len(frame)*3]
	for i, c := range frame {
		dst[i*3+0], dst[i*3+1], dst[i*3+2] = c.R, c.G, c.B
	}
	return dst
}
