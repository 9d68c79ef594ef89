package sensor

import (
	"fmt"

	"github.com/coreman2200/funtimes-aurora/internal/automaton"
)

// Injector adds stimulus above Threshold to the cell nearest each sensor.
type Injector struct {
	Map       [Channels]int
	Threshold float64
	Growth    float64
}

// NewInjector checks that every target is a valid cell of a field with n cells.
func NewInjector(targets []int, n int, threshold, growth float64) (*Injector, error) {
	if len(targets) != Channels {
		return nil, fmt.Errorf("sensor map has %d targets, want %d", len(targets), Channels)
	}
	inj := &Injector{Threshold: threshold, Growth: growth}
	for ch, idx := range targets {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("sensor %d targets LED %d outside 0..%d", ch, idx, n-1)
		}
		inj.Map[ch] = idx
	}
	return inj, nil
}

// Inject perturbs the field for one channel. The cell is not clamped here;
// a strong stimulus may overshoot 255 until the next automaton step.
func (inj *Injector) Inject(f *automaton.Field, ch int, value float64) {
	if ch < 0 || ch >= Channels || value <= inj.Threshold {
		return
	}
	i := inj.Map[ch]
	f.Cells[i] = int(float64(f.Cells[i]) + (value-inj.Threshold)*inj.Growth)
}
