// Package led pushes rendered frames to the two rings, or to something that
// pretends to be them.
package led

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-aurora/internal/render"
)

// Driver abstracts an LED output sink holding both rings.
type Driver interface {
	// Show transmits one frame per ring. It must not keep the slices.
	Show(primary, secondary []render.RGB) error
	// SetBrightness sets the global output scale, 255 is full.
	SetBrightness(b uint8)
	// Close blanks the rings and releases resources.
	Close() error
}

// Order is a strip's wire color order, as indexes into R,G,B.
type Order [3]uint8

var (
	OrderRGB = Order{0, 1, 2}
	OrderGRB = Order{1, 0, 2}
	OrderBRG = Order{2, 0, 1}
)

// ParseOrder accepts any permutation of "RGB", case insensitive.
func ParseOrder(s string) (Order, error) {
	s = strings.ToUpper(s)
	if len(s) != 3 {
		return Order{}, fmt.Errorf("color order %q: want 3 letters", s)
	}
	var o Order
	var seen [3]bool
	for i := 0; i < 3; i++ {
		idx := strings.IndexByte("RGB", s[i])
		if idx < 0 || seen[idx] {
			return Order{}, fmt.Errorf("color order %q is not a permutation of RGB", s)
		}
		seen[idx] = true
		o[i] = uint8(idx)
	}
	return o, nil
}

// Wire returns the channel bytes in transmission order.
func (o Order) Wire(c render.RGB) [3]byte {
	ch := [3]byte{c.R, c.G, c.B}
	return [3]byte{ch[o[0]], ch[o[1]], ch[o[2]]}
}

func (o Order) String() string {
	var b [3]byte
	for i, idx := range o {
		b[i] = "RGB"[idx]
	}
	return string(b[:])
}

// Fanout shows the same frame on several drivers, e.g. hardware plus the
// browser preview.
type Fanout []Driver

func (f Fanout) Show(primary, secondary []render.RGB) error {
	var errs []error
	for _, d := range f {
		if err := d.Show(primary, secondary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) SetBrightness(b uint8) {
	for _, d := range f {
		d.SetBrightness(b)
	}
}

func (f Fanout) Close() error {
	var errs []error
	for _, d := range f {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
