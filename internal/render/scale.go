package render

import "math"

// Scale8 scales i by (s+1)/256, so a scale of 255 is the identity.
func Scale8(i, s uint8) uint8 {
	return uint8((uint16(i) * (1 + uint16(s))) >> 8)
}

// Scale8Video is Scale8 that never turns a lit channel off: if both i and s
// are non-zero the result is at least 1.
func Scale8Video(i, s uint8) uint8 {
	v := uint8((uint16(i) * uint16(s)) >> 8)
	if i != 0 && s != 0 {
		v++
	}
	return v
}

// Dim8Video applies a square-law curve that keeps low values lit.
func Dim8Video(x uint8) uint8 { return Scale8Video(x, x) }

func (c RGB) ScaleVideo(s uint8) RGB {
	return RGB{Scale8Video(c.R, s), Scale8Video(c.G, s), Scale8Video(c.B, s)}
}

func (c RGB) Scale(s uint8) RGB {
	return RGB{Scale8(c.R, s), Scale8(c.G, s), Scale8(c.B, s)}
}

var sinTable [256]uint8

func init() {
	for i := range sinTable {
		v := 127.5 + 127.5*math.Sin(2*math.Pi*float64(i)/256)
		sinTable[i] = uint8(math.Min(255, math.Max(0, math.Round(v))))
	}
}

// Sin8 is a byte sine: one full period over 0..255, output centered on 128.
func Sin8(theta uint8) uint8 { return sinTable[theta] }

// Cos8 is Sin8 a quarter period ahead.
func Cos8(theta uint8) uint8 { return sinTable[theta+64] }
