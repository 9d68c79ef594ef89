package automaton

import "math/rand/v2"

// Source is a seedable generator owned by the frame loop.
type Source struct {
	pcg *rand.PCG
	*rand.Rand
}

func NewSource(seed uint64) *Source {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Source{pcg: pcg, Rand: rand.New(pcg)}
}

// Mix folds an entropy sample into the generator state. Only the
// independence between frames changes; the rule's statistics do not.
func (s *Source) Mix(entropy uint16) {
	a := s.pcg.Uint64() + uint64(entropy)
	b := s.pcg.Uint64() ^ uint64(entropy)<<32
	s.pcg.Seed(a, b)
}
