// Package ramp eases output brightness between levels, so the rings fade in
// at power up and glide to a new brightness instead of jumping.
package ramp

import (
	"math"
	"time"
)

// Key is one point of an envelope. Ease shapes the segment that starts here.
type Key struct {
	T    float64 // seconds
	V    float64
	Ease string // linear, smooth or cubic
}

// Envelope is a piecewise eased curve. Keys must be sorted by T.
type Envelope struct {
	Keys []Key
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func ease(kind string, x float64) float64 {
	switch kind {
	case "smooth":
		return x * x * (3 - 2*x)
	case "cubic":
		// 6x^5 - 15x^4 + 10x^3
		return x * x * x * (x*(x*6-15) + 10)
	default:
		return x
	}
}

// Eval returns the envelope at t seconds. It holds the first value before the
// first key and the last value after the last key.
func (e Envelope) Eval(t float64) float64 {
	n := len(e.Keys)
	switch {
	case n == 0:
		return 0
	case t <= e.Keys[0].T:
		return e.Keys[0].V
	case t >= e.Keys[n-1].T:
		return e.Keys[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a, b := e.Keys[i], e.Keys[i+1]
		if t > b.T {
			continue
		}
		den := b.T - a.T
		if den <= 0 {
			return b.V
		}
		u := ease(a.Ease, clamp01((t-a.T)/den))
		return a.V + (b.V-a.V)*u
	}
	return e.Keys[n-1].V
}

// End is the time of the last key.
func (e Envelope) End() float64 {
	if len(e.Keys) == 0 {
		return 0
	}
	return e.Keys[len(e.Keys)-1].T
}

// Brightness follows an envelope in frame-loop time.
type Brightness struct {
	env   Envelope
	start time.Duration
}

// SoftStart fades from 0 to target over d starting at now. A zero d jumps
// straight to target.
func SoftStart(now, d time.Duration, target uint8) *Brightness {
	b := &Brightness{}
	b.Retarget(now, d, 0, target)
	return b
}

// Retarget starts a new fade from the given level to target.
func (b *Brightness) Retarget(now, d time.Duration, from, to uint8) {
	b.start = now
	if d <= 0 {
		b.env = Envelope{Keys: []Key{{V: float64(to)}}}
		return
	}
	b.env = Envelope{Keys: []Key{
		{T: 0, V: float64(from), Ease: "smooth"},
		{T: d.Seconds(), V: float64(to)},
	}}
}

// At returns the brightness at now.
func (b *Brightness) At(now time.Duration) uint8 {
	v := math.Round(b.env.Eval((now - b.start).Seconds()))
	return uint8(math.Max(0, math.Min(255, v)))
}

// Done reports whether the fade has reached its target.
func (b *Brightness) Done(now time.Duration) bool {
	return (now - b.start).Seconds() >= b.env.End()
}
