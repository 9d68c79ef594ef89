package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aurora/internal/automaton"
	"github.com/coreman2200/funtimes-aurora/internal/layout"
	"github.com/coreman2200/funtimes-aurora/internal/sensor"
)

var (
	outer = layout.Ring{Name: "outer", Count: 46}
	inner = layout.Ring{Name: "inner", Count: 12}
)

func newEngine(t *testing.T, seed uint64) *Engine {
	t.Helper()
	f, err := automaton.NewField(outer.Count, automaton.DefaultRule)
	require.NoError(t, err)
	comp := newCompositor(t, outer.Count, 8)
	down, err := layout.NewResampler(outer, inner)
	require.NoError(t, err)
	e, err := NewEngine(f, automaton.NewSource(seed), comp, down)
	require.NoError(t, err)
	return e
}

// constSource reports the same raw value on every channel.
type constSource int

func (c constSource) ReadRaw(int) int { return int(c) }

type fixedEntropy uint16

func (e fixedEntropy) Sample() uint16 { return uint16(e) }

// solid paints a color for n frames.
type solid struct {
	c RGB
	n int
}

func (s *solid) Step(dst []RGB) bool {
	if s.n == 0 {
		return false
	}
	s.n--
	for i := range dst {
		dst[i] = s.c
	}
	return true
}

func TestNewEngineRejectsMismatchedRings(t *testing.T) {
	f, err := automaton.NewField(12, automaton.DefaultRule)
	require.NoError(t, err)
	comp := newCompositor(t, outer.Count, 8)
	down, err := layout.NewResampler(outer, inner)
	require.NoError(t, err)

	_, err = NewEngine(f, automaton.NewSource(1), comp, down)
	assert.Error(t, err)

	f46, err := automaton.NewField(46, automaton.DefaultRule)
	require.NoError(t, err)
	wrong, err := layout.NewResampler(inner, inner)
	require.NoError(t, err)
	_, err = NewEngine(f46, automaton.NewSource(1), comp, wrong)
	assert.Error(t, err)

	_, err = NewEngine(f46, nil, comp, down)
	assert.Error(t, err)
}

func TestRenderOnceDownsamplesPrimary(t *testing.T) {
	e := newEngine(t, 7)
	e.RenderOnce(0)
	require.Len(t, e.Primary, 46)
	require.Len(t, e.Secondary, 12)
	for j := range e.Secondary {
		assert.Equal(t, e.Primary[j*46/12], e.Secondary[j], "inner LED %d", j)
	}
	assert.Equal(t, e.Primary[19], e.Secondary[5])
	assert.Equal(t, e.Primary[42], e.Secondary[11])
}

func TestFrameCounterAdvancesOnlyOnAdvance(t *testing.T) {
	e := newEngine(t, 1)
	e.RenderOnce(0)
	e.RenderOnce(0)
	assert.Equal(t, uint64(0), e.Frame())
	e.Advance()
	e.Advance()
	assert.Equal(t, uint64(2), e.Frame())
}

func TestFieldStaysInRangeWithoutSensors(t *testing.T) {
	e := newEngine(t, 42)
	for i := 0; i < 1000; i++ {
		e.RenderOnce(time.Duration(i) * 5 * time.Millisecond)
		e.Advance()
		for c, v := range e.Field.Cells {
			require.True(t, v >= automaton.MinCell && v <= automaton.MaxCell, "frame %d cell %d = %d", i, c, v)
		}
	}
	for _, px := range e.Primary {
		assert.GreaterOrEqual(t, px.R, uint8(8))
		assert.GreaterOrEqual(t, px.G, uint8(8))
	}
}

func TestSensorsInjectIntoMappedCells(t *testing.T) {
	e := newEngine(t, 3)
	targets := []int{10, 43, 3, 30, 17, 21}
	inj, err := sensor.NewInjector(targets, 46, 30, 0.125)
	require.NoError(t, err)
	e.WithSensors(constSource(1000), sensor.NewIntegrator(0.6, 1), inj)

	e.RenderOnce(time.Second)
	for ch, idx := range targets {
		assert.InDelta(t, 600, e.Last.Sensors[ch], 1e-6)
		// at least the floor plus (600-30)*0.125
		assert.GreaterOrEqual(t, e.Field.Cells[idx], 72, "sensor %d", ch)
	}
}

func TestSameSeedAndEntropyRenderSameFrames(t *testing.T) {
	a, b := newEngine(t, 99), newEngine(t, 99)
	for _, e := range []*Engine{a, b} {
		e.ReseedPerFrame = true
		e.Entropy = fixedEntropy(0xbeef)
	}
	for i := 0; i < 200; i++ {
		a.RenderOnce(0)
		b.RenderOnce(0)
		a.Advance()
		b.Advance()
	}
	assert.Equal(t, a.Field.Cells, b.Field.Cells)
	assert.Equal(t, a.Primary, b.Primary)
}

func TestOverlayReplacesFrameUntilDone(t *testing.T) {
	e := newEngine(t, 5)
	red := RGB{255, 0, 0}
	e.SetOverlay(&solid{c: red, n: 2})

	for i := 0; i < 2; i++ {
		e.RenderOnce(0)
		for _, px := range e.Primary {
			require.Equal(t, red, px)
		}
		for _, px := range e.Secondary {
			require.Equal(t, red, px)
		}
	}

	e.RenderOnce(0)
	assert.Nil(t, e.Overlay())
	// the animation's floor keeps green lit, so the frame is no longer pure red
	assert.NotEqual(t, red, e.Primary[0])
}

func TestLimiterRunsOverBothRings(t *testing.T) {
	e := newEngine(t, 5)
	var got []int
	e.SetPost(PostPipeline{Limiter: func(frames ...[]RGB) {
		for _, f := range frames {
			got = append(got, len(f))
		}
	}})
	e.RenderOnce(0)
	assert.Equal(t, []int{46, 12}, got)
}
