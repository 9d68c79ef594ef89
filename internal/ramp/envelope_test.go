package ramp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeEval(t *testing.T) {
	e := Envelope{Keys: []Key{{T: 0, V: 0}, {T: 1, V: 10, Ease: "smooth"}, {T: 2, V: 0}}}
	assert.Equal(t, 0.0, e.Eval(-1))
	assert.InDelta(t, 5, e.Eval(0.5), 1e-9)
	assert.Equal(t, 10.0, e.Eval(1))
	assert.InDelta(t, 5, e.Eval(1.5), 1e-9, "smoothstep is symmetric")
	assert.Greater(t, e.Eval(1.25), 10-2.5, "smooth eases out of the first key")
	assert.Equal(t, 0.0, e.Eval(3))
	assert.Equal(t, 0.0, Envelope{}.Eval(1))
	assert.Equal(t, 2.0, e.End())
}

func TestCubicEase(t *testing.T) {
	assert.Equal(t, 0.0, ease("cubic", 0))
	assert.InDelta(t, 0.5, ease("cubic", 0.5), 1e-12)
	assert.InDelta(t, 1, ease("cubic", 1), 1e-12)
}

func TestSoftStartFadesIn(t *testing.T) {
	start := 3 * time.Second
	b := SoftStart(start, 800*time.Millisecond, 255)

	assert.Equal(t, uint8(0), b.At(start))
	assert.False(t, b.Done(start+400*time.Millisecond))
	prev := uint8(0)
	for d := time.Duration(0); d <= 800*time.Millisecond; d += 10 * time.Millisecond {
		v := b.At(start + d)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
	assert.Equal(t, uint8(255), b.At(start+time.Second))
	assert.True(t, b.Done(start+800*time.Millisecond))
}

func TestZeroDurationJumps(t *testing.T) {
	b := SoftStart(0, 0, 96)
	assert.Equal(t, uint8(96), b.At(0))
	assert.True(t, b.Done(0))
}

func TestRetargetFromCurrentLevel(t *testing.T) {
	b := SoftStart(0, 0, 200)
	b.Retarget(time.Second, 100*time.Millisecond, 200, 50)
	assert.Equal(t, uint8(200), b.At(time.Second))
	assert.Equal(t, uint8(125), b.At(time.Second+50*time.Millisecond))
	assert.Equal(t, uint8(50), b.At(2*time.Second))
}
