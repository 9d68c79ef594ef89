package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-aurora/internal/led"
	"github.com/coreman2200/funtimes-aurora/internal/pattern"
	"github.com/coreman2200/funtimes-aurora/internal/preview"
	"github.com/coreman2200/funtimes-aurora/internal/ramp"
	"github.com/coreman2200/funtimes-aurora/internal/render"
)

// Clock is the scheduler's view of time.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration)
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// glide is how long a brightness change from /control takes.
const glide = 150 * time.Millisecond

// Scheduler runs one frame per period: render, transmit, sleep whatever is
// left of the period, advance the frame counter. A slow frame is never made
// up for; the next one simply starts late.
type Scheduler struct {
	Eng    *render.Engine
	Driver led.Driver
	FPS    int

	Brightness   uint8         // output cap
	SoftStart    time.Duration // fade in from black over this long
	StartupDelay time.Duration

	// Controls, when set, is drained between frames.
	Controls <-chan preview.Control
	// Stats, when set, receives loop metrics about once a second.
	Stats func(preview.Stats)

	Clock Clock

	level   uint8
	fade    *ramp.Brightness
	showErr int
}

func NewScheduler(eng *render.Engine, drv led.Driver, fps int, brightness uint8) *Scheduler {
	return &Scheduler{Eng: eng, Driver: drv, FPS: fps, Brightness: brightness, Clock: wallClock{}}
}

// Run loops until ctx is done, then blanks the rings.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Clock == nil {
		s.Clock = wallClock{}
	}
	fps := s.FPS
	if fps <= 0 {
		fps = 200
	}
	period := time.Second / time.Duration(fps)

	if s.StartupDelay > 0 {
		s.Clock.Sleep(ctx, s.StartupDelay)
	}
	start := s.Clock.Now()
	s.fade = ramp.SoftStart(0, s.SoftStart, s.Brightness)

	var (
		statFrames int
		statStart  = start
		renderMS   float64
	)
	for ctx.Err() == nil {
		t0 := s.Clock.Now()
		now := t0.Sub(start)

		s.drainControls(now, fps)
		s.applyFade(now)

		s.Eng.RenderOnce(now)
		if err := s.Driver.Show(s.Eng.Primary, s.Eng.Secondary); err != nil {
			s.showErr++
			if s.showErr == 1 || s.showErr%1000 == 0 {
				log.Warn().Err(err).Int("count", s.showErr).Msg("frame transmit failed")
			}
		}

		if rest := period - s.Clock.Now().Sub(t0); rest > 0 {
			s.Clock.Sleep(ctx, rest)
		}
		s.Eng.Advance()

		statFrames++
		renderMS += s.Eng.Last.RenderMS
		if el := s.Clock.Now().Sub(statStart); el >= time.Second {
			st := preview.Stats{
				FPS:      float64(statFrames) / el.Seconds(),
				RenderMS: renderMS / float64(statFrames),
				Sensors:  s.Eng.Last.Sensors,
			}
			log.Debug().
				Uint64("frame", s.Eng.Frame()).
				Float64("fps", st.FPS).
				Float64("render_ms", st.RenderMS).
				Msg("frame timing")
			if s.Stats != nil {
				s.Stats(st)
			}
			statFrames, renderMS, statStart = 0, 0, s.Clock.Now()
		}
	}

	blankP := make([]render.RGB, len(s.Eng.Primary))
	blankS := make([]render.RGB, len(s.Eng.Secondary))
	return s.Driver.Show(blankP, blankS)
}

// applyFade follows the current fade and forgets it once it is complete, so
// a steady run makes no brightness calls at all.
func (s *Scheduler) applyFade(now time.Duration) {
	if s.fade == nil {
		return
	}
	if b := s.fade.At(now); b != s.level {
		s.Driver.SetBrightness(b)
		s.level = b
	}
	if s.fade.Done(now) {
		s.fade = nil
	}
}

func (s *Scheduler) drainControls(now time.Duration, fps int) {
	if s.Controls == nil {
		return
	}
	for {
		select {
		case c := <-s.Controls:
			s.apply(c, now, fps)
		default:
			return
		}
	}
}

func (s *Scheduler) apply(c preview.Control, now time.Duration, fps int) {
	if c.Brightness != nil {
		s.Brightness = uint8(*c.Brightness)
		s.fade = &ramp.Brightness{}
		s.fade.Retarget(now, glide, s.level, s.Brightness)
		log.Info().Int("brightness", *c.Brightness).Msg("brightness changed")
	}
	if c.RunTest != "" {
		p, err := pattern.New(c.RunTest, holdFrames(fps))
		if err != nil {
			log.Warn().Err(err).Msg("test pattern")
			return
		}
		if p.Kind == pattern.Address {
			p.Frames = 10 * fps
		}
		s.Eng.SetOverlay(p)
		log.Info().Str("pattern", c.RunTest).Msg("test pattern started")
	}
}
