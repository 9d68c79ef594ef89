package sensor

import (
	"math"
	"time"
)

// Source returns the latest raw reading of a channel, on the 10-bit scale
// (0..1023) the gain and threshold were tuned for. ReadRaw must not block.
type Source interface {
	ReadRaw(ch int) int
}

// Entropy supplies a few noisy bits once per frame.
type Entropy interface {
	Sample() uint16
}

// Sim fakes a person walking around the ring: each sensor in turn sees a
// slow bump of reflected light on top of a small noise floor.
type Sim struct {
	Start  time.Time
	Period time.Duration // time for the bump to go once around
	Peak   int
	now    func() time.Time
}

func NewSim() *Sim {
	return &Sim{Start: time.Now(), Period: 12 * time.Second, Peak: 700, now: time.Now}
}

func (s *Sim) ReadRaw(ch int) int {
	return s.At(ch, s.now().Sub(s.Start))
}

// At is the reading of channel ch at elapsed time t.
func (s *Sim) At(ch int, t time.Duration) int {
	phase := 2 * math.Pi * (t.Seconds()/s.Period.Seconds() - float64(ch)/Channels)
	bump := math.Cos(phase)
	// 12 is the ambient floor the real sensors report in a dark room
	v := 12.0
	if bump > 0.7 {
		v += float64(s.Peak) * (bump - 0.7) / 0.3
	}
	return int(v)
}

// ClockEntropy uses the jitter of the monotonic clock when no floating
// input is available.
type ClockEntropy struct{}

func (ClockEntropy) Sample() uint16 {
	n := uint64(time.Now().UnixNano())
	n ^= n >> 17
	n *= 0xed5ad4bb
	return uint16(n ^ n>>11)
}
