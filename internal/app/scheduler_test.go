package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aurora/internal/config"
	"github.com/coreman2200/funtimes-aurora/internal/preview"
	"github.com/coreman2200/funtimes-aurora/internal/render"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// recorder is a driver that burns cost of fake time per frame and cancels
// the run after stopAfter frames.
type recorder struct {
	clock     *fakeClock
	cost      time.Duration
	stopAfter int
	cancel    context.CancelFunc

	shows  int
	bright []uint8
	frames [][]render.RGB
}

func (r *recorder) Show(primary, _ []render.RGB) error {
	r.shows++
	r.clock.now = r.clock.now.Add(r.cost)
	r.frames = append(r.frames, append([]render.RGB(nil), primary...))
	if r.shows == r.stopAfter {
		r.cancel()
	}
	return nil
}

func (r *recorder) SetBrightness(b uint8) { r.bright = append(r.bright, b) }
func (r *recorder) Close() error          { return nil }

func newTestScheduler(t *testing.T, frames int, cost time.Duration) (*Scheduler, *recorder, context.Context) {
	t.Helper()
	cfg := config.Default()
	cfg.Automaton.Seed = 1
	core, err := Build(cfg, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	clk := &fakeClock{now: time.Unix(1000, 0)}
	rec := &recorder{clock: clk, cost: cost, stopAfter: frames, cancel: cancel}

	s := NewScheduler(core.Eng, rec, 200, 255)
	s.Clock = clk
	return s, rec, ctx
}

func TestRunSleepsRemainderOfPeriod(t *testing.T) {
	s, rec, ctx := newTestScheduler(t, 10, time.Millisecond)
	require.NoError(t, s.Run(ctx))

	require.Len(t, rec.frames, 11, "ten frames plus the blank one")
	require.Len(t, rec.clock.sleeps, 10)
	for _, d := range rec.clock.sleeps {
		assert.Equal(t, 4*time.Millisecond, d)
	}
	assert.Equal(t, uint64(10), s.Eng.Frame())
	for _, px := range rec.frames[10] {
		assert.Equal(t, render.RGB{}, px)
	}
}

func TestRunNeverCatchesUp(t *testing.T) {
	s, rec, ctx := newTestScheduler(t, 10, 8*time.Millisecond)
	require.NoError(t, s.Run(ctx))
	assert.Empty(t, rec.clock.sleeps)
	assert.Equal(t, uint64(10), s.Eng.Frame())
}

func TestStartupDelay(t *testing.T) {
	s, rec, ctx := newTestScheduler(t, 2, 0)
	s.StartupDelay = 500 * time.Millisecond
	require.NoError(t, s.Run(ctx))
	require.NotEmpty(t, rec.clock.sleeps)
	assert.Equal(t, 500*time.Millisecond, rec.clock.sleeps[0])
}

func TestSoftStartRampsThenStops(t *testing.T) {
	s, rec, ctx := newTestScheduler(t, 60, 0)
	s.SoftStart = 100 * time.Millisecond
	require.NoError(t, s.Run(ctx))

	require.NotEmpty(t, rec.bright)
	for i := 1; i < len(rec.bright); i++ {
		assert.GreaterOrEqual(t, rec.bright[i], rec.bright[i-1])
	}
	assert.Equal(t, uint8(255), rec.bright[len(rec.bright)-1])
	// one call per 5 ms frame at most, none after the fade
	assert.LessOrEqual(t, len(rec.bright), 21)
}

func TestNoSoftStartSetsBrightnessOnce(t *testing.T) {
	s, rec, ctx := newTestScheduler(t, 30, 0)
	require.NoError(t, s.Run(ctx))
	assert.Equal(t, []uint8{255}, rec.bright)
}

func TestControlsApplyBetweenFrames(t *testing.T) {
	s, rec, ctx := newTestScheduler(t, 60, 0)
	ch := make(chan preview.Control, 2)
	forty := 40
	ch <- preview.Control{Brightness: &forty}
	ch <- preview.Control{RunTest: "rgb_channels"}
	s.Controls = ch
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, uint8(40), rec.bright[len(rec.bright)-1])
	for _, px := range rec.frames[0] {
		require.Equal(t, render.RGB{R: 255}, px)
	}
	// ten frames per channel at 200 FPS
	assert.Equal(t, render.RGB{G: 255}, rec.frames[10][0])
	assert.Equal(t, render.RGB{B: 255}, rec.frames[20][0])
	assert.NotEqual(t, render.RGB{B: 255}, rec.frames[30][0])
}

func TestStatsReportedEverySecond(t *testing.T) {
	s, _, ctx := newTestScheduler(t, 250, 0)
	var got []preview.Stats
	s.Stats = func(st preview.Stats) { got = append(got, st) }
	require.NoError(t, s.Run(ctx))

	require.Len(t, got, 1)
	assert.InDelta(t, 200, got[0].FPS, 1)
}
