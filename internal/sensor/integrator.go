// Package sensor smooths the IR proximity readings and turns them into
// stimulus for the automaton field.
package sensor

import "time"

// Channels is the number of sensors around the ring.
const Channels = 6

// State is one channel's filter memory.
type State struct {
	Value float64
	Last  time.Duration // monotonic time of the previous sample
}

// Integrator is an exponential moving average whose coefficient is the
// elapsed time since the channel was last sampled, so the filter bandwidth
// follows the polling rate.
type Integrator struct {
	Gain   float64 // raw sample -> sensor units
	MaxDT  float64 // seconds; 0 means no clamp
	States [Channels]State
}

func NewIntegrator(gain, maxDT float64) *Integrator {
	return &Integrator{Gain: gain, MaxDT: maxDT}
}

// Integrate folds a raw sample taken at now into channel ch and returns the
// smoothed value. With MaxDT <= 1 the filter cannot overshoot the sample.
func (g *Integrator) Integrate(ch int, raw int, now time.Duration) float64 {
	if ch < 0 || ch >= Channels {
		return 0
	}
	st := &g.States[ch]
	dt := (now - st.Last).Seconds()
	if dt < 0 {
		dt = 0
	}
	if g.MaxDT > 0 && dt > g.MaxDT {
		dt = g.MaxDT
	}
	st.Value += (float64(raw)*g.Gain - st.Value) * dt
	st.Last = now
	return st.Value
}

// Values returns a snapshot of every channel's smoothed value.
func (g *Integrator) Values() [Channels]float64 {
	var out [Channels]float64
	for i := range g.States {
		out[i] = g.States[i].Value
	}
	return out
}
