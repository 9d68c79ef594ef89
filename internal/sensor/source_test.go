package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimBumpTravelsAroundRing(t *testing.T) {
	s := NewSim()
	// at t=0 the bump sits on channel 0
	assert.Greater(t, s.At(0, 0), 500)
	assert.Less(t, s.At(3, 0), 20)
	// a sixth of a period later it has moved on to channel 1
	later := s.Period / Channels
	assert.Greater(t, s.At(1, later), 500)
	assert.Less(t, s.At(0, later+s.Period/4), 20)
}

func TestSimReadRawUsesClock(t *testing.T) {
	s := NewSim()
	base := time.Unix(0, 0)
	s.Start = base
	s.now = func() time.Time { return base.Add(s.Period / 2) }
	// half a period away from channel 0 the reading is the ambient floor
	assert.Equal(t, 12, s.ReadRaw(0))
	assert.Equal(t, s.At(3, s.Period/2), s.ReadRaw(3))
}
