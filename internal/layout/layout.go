package layout

import "fmt"

// Ring is a closed loop of addressable LEDs.
type Ring struct {
	Name  string
	Count int
}

// Index wraps any integer position onto the ring (0..Count-1), including
// negative offsets.
func (r Ring) Index(i int) int {
	return ((i % r.Count) + r.Count) % r.Count
}

// Neighbors returns the left and right wraparound neighbors of i.
func (r Ring) Neighbors(i int) (left, right int) {
	return r.Index(i - 1), r.Index(i + 1)
}

// Resampler maps a dense ring onto a sparser one by nearest index:
// dst[j] = src[j*src.Count/dst.Count].
type Resampler struct {
	Src, Dst Ring
	idx      []int
}

func NewResampler(src, dst Ring) (*Resampler, error) {
	if src.Count <= 0 || dst.Count <= 0 {
		return nil, fmt.Errorf("resample %s(%d) -> %s(%d): empty ring", src.Name, src.Count, dst.Name, dst.Count)
	}
	r := &Resampler{Src: src, Dst: dst, idx: make([]int, dst.Count)}
	for j := range r.idx {
		r.idx[j] = j * src.Count / dst.Count
	}
	return r, nil
}

// SourceIndex reports which source LED feeds destination LED j.
func (r *Resampler) SourceIndex(j int) int { return r.idx[j] }

// Map fills dst from src. Both slices must match the ring sizes.
func Map[T any](r *Resampler, src, dst []T) {
	for j, i := range r.idx {
		dst[j] = src[i]
	}
}
