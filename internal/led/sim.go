package led

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-aurora/internal/render"
)

// Sim keeps the last frame in memory and logs a compact summary of it,
// useful for headless runs and tests.
type Sim struct {
	Log   zerolog.Logger
	Every int // log one frame in Every, 0 never logs

	Frames     int
	Primary    []render.RGB
	Secondary  []render.RGB
	brightness uint8
	since      time.Time
}

func NewSim(log zerolog.Logger, every int, brightness uint8) *Sim {
	return &Sim{Log: log, Every: every, brightness: brightness, since: time.Now()}
}

func (s *Sim) Show(primary, secondary []render.RGB) error {
	s.Primary = append(s.Primary[:0], primary...)
	s.Secondary = append(s.Secondary[:0], secondary...)
	s.Frames++
	if s.Every <= 0 || s.Frames%s.Every != 0 {
		return nil
	}
	r, g, b := average(primary)
	ev := s.Log.Info().
		Int("frame", s.Frames).
		Uint8("brightness", s.brightness).
		Str("avg", render.RGB{R: r, G: g, B: b}.Colorful().Hex())
	if len(primary) > 0 {
		ev = ev.Str("first", primary[0].Colorful().Hex())
	}
	if el := time.Since(s.since).Seconds(); el > 0 {
		ev = ev.Float64("fps", float64(s.Every)/el)
	}
	s.since = time.Now()
	ev.Msg("sim frame")
	return nil
}

func average(frame []render.RGB) (r, g, b uint8) {
	if len(frame) == 0 {
		return 0, 0, 0
	}
	var sr, sg, sb int
	for _, c := range frame {
		sr += int(c.R)
		sg += int(c.G)
		sb += int(c.B)
	}
	n := len(frame)
	return uint8(sr / n), uint8(sg / n), uint8(sb / n)
}

func (s *Sim) SetBrightness(b uint8) { s.brightness = b }

func (s *Sim) Brightness() uint8 { return s.brightness }

func (s *Sim) Close() error {
	s.Log.Debug().Int("frames", s.Frames).Msg("sim driver closed")
	return nil
}
