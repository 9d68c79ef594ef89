// Package pattern holds wiring test patterns that temporarily replace the
// animation on the primary ring.
package pattern

import (
	"fmt"
	"sort"

	"github.com/coreman2200/funtimes-aurora/internal/render"
)

type Kind string

const (
	Address     Kind = "address"
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
)

var (
	red   = render.RGB{R: 255}
	green = render.RGB{G: 255}
	blue  = render.RGB{B: 255}
	white = render.RGB{R: 255, G: 255, B: 255}
)

// Runner steps one pattern. Hold is the number of frames each step stays on
// screen; at 200 FPS a sweep with Hold 1 would be over in a blink.
type Runner struct {
	Kind Kind
	Hold int
	// Frames bounds the address pattern, which otherwise never ends.
	Frames int

	frame int
}

// New returns a runner for the named pattern.
func New(name string, hold int) (*Runner, error) {
	k := Kind(name)
	switch k {
	case Address, IndexSweep, RGBChannels:
	default:
		return nil, fmt.Errorf("unknown test pattern %q (have %v)", name, Names())
	}
	if hold < 1 {
		hold = 1
	}
	return &Runner{Kind: k, Hold: hold}, nil
}

func Names() []string {
	out := []string{string(Address), string(IndexSweep), string(RGBChannels)}
	sort.Strings(out)
	return out
}

// Step fills dst and returns false when the pattern is complete.
func (r *Runner) Step(dst []render.RGB) bool {
	for i := range dst {
		dst[i] = render.RGB{}
	}
	step := r.frame / r.Hold

	switch r.Kind {
	case Address:
		if r.Frames > 0 && r.frame >= r.Frames {
			return false
		}
		for i := range dst {
			switch {
			case i%10 == 0:
				dst[i] = red
			case i%2 == 1:
				dst[i] = blue
			}
		}
	case IndexSweep:
		if step >= len(dst) {
			return false
		}
		dst[step] = white
	case RGBChannels:
		if step >= 3 {
			return false
		}
		c := [3]render.RGB{red, green, blue}[step]
		for i := range dst {
			dst[i] = c
		}
	default:
		return false
	}
	r.frame++
	return true
}
