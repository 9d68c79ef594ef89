// Package automaton holds the per-LED intensity field and its stochastic
// update rule: a continuous, noisy relative of Rule 30 in which a cell with
// exactly one active neighbor grows and every other cell decays.
package automaton

import "fmt"

const (
	MinCell = 1
	MaxCell = 255
)

// Rand is the subset of *math/rand/v2.Rand the rule needs.
type Rand interface {
	IntN(n int) int
}

// Rule is the tunable part of the update. Draws are uniform over [Low, High)
// and divided (integer) by Scale.
type Rule struct {
	Threshold  int
	SelfOdds   int
	BoostLow   int
	BoostHigh  int
	ReduceLow  int
	ReduceHigh int
	Scale      int
}

// DefaultRule is the tuning of the first installation.
var DefaultRule = Rule{
	Threshold:  170,
	SelfOdds:   10,
	BoostLow:   80,
	BoostHigh:  290,
	ReduceLow:  80,
	ReduceHigh: 300,
	Scale:      100,
}

func (r Rule) validate() error {
	switch {
	case r.SelfOdds < 2:
		return fmt.Errorf("self odds %d < 2", r.SelfOdds)
	case r.BoostHigh <= r.BoostLow:
		return fmt.Errorf("boost range [%d,%d) empty", r.BoostLow, r.BoostHigh)
	case r.ReduceHigh <= r.ReduceLow:
		return fmt.Errorf("reduce range [%d,%d) empty", r.ReduceLow, r.ReduceHigh)
	case r.Scale <= 0:
		return fmt.Errorf("scale %d <= 0", r.Scale)
	}
	return nil
}

// Field is the cell intensity array of the primary ring.
// Cells are ints, not bytes: sensor injection may push a cell past 255 until
// the next Step clamps it.
type Field struct {
	Rule  Rule
	Cells []int
}

func NewField(n int, rule Rule) (*Field, error) {
	if n <= 0 {
		return nil, fmt.Errorf("field size %d", n)
	}
	if err := rule.validate(); err != nil {
		return nil, fmt.Errorf("automaton rule: %w", err)
	}
	f := &Field{Rule: rule, Cells: make([]int, n)}
	f.Fill(MinCell)
	return f, nil
}

func (f *Field) Len() int { return len(f.Cells) }

func (f *Field) Fill(v int) {
	for i := range f.Cells {
		f.Cells[i] = v
	}
}

// Neighbors counts active neighbors of cell c: left, right (no wrap) and, one
// time in SelfOdds, the cell itself.
func (f *Field) Neighbors(c int, rng Rand) int {
	r := f.Rule
	n := 0
	if c > 0 && f.Cells[c-1] > r.Threshold {
		n++
	}
	if c < len(f.Cells)-1 && f.Cells[c+1] > r.Threshold {
		n++
	}
	if f.Cells[c] > r.Threshold && rng.IntN(r.SelfOdds) == 1 {
		n++
	}
	return n
}

// Step advances every cell once, in index order and in place, so cell c sees
// the already-updated value of c-1.
func (f *Field) Step(rng Rand) {
	r := f.Rule
	for c := range f.Cells {
		if f.Neighbors(c, rng) == 1 {
			f.Cells[c] += (r.BoostLow + rng.IntN(r.BoostHigh-r.BoostLow)) / r.Scale
		} else {
			f.Cells[c] -= (r.ReduceLow + rng.IntN(r.ReduceHigh-r.ReduceLow)) / r.Scale
		}
		f.Cells[c] = Clamp(f.Cells[c])
	}
}

func Clamp(v int) int {
	if v < MinCell {
		return MinCell
	}
	if v > MaxCell {
		return MaxCell
	}
	return v
}
