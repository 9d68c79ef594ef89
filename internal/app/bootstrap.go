// Package app assembles the engine, sensors and outputs from a config and
// runs the fixed-rate frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-aurora/internal/automaton"
	"github.com/coreman2200/funtimes-aurora/internal/config"
	"github.com/coreman2200/funtimes-aurora/internal/layout"
	"github.com/coreman2200/funtimes-aurora/internal/led"
	"github.com/coreman2200/funtimes-aurora/internal/pattern"
	"github.com/coreman2200/funtimes-aurora/internal/preview"
	"github.com/coreman2200/funtimes-aurora/internal/render"
	"github.com/coreman2200/funtimes-aurora/internal/sensor"
)

// Options are run-time choices that do not belong in the config file.
type Options struct {
	Pattern string    // test pattern shown from the first frame
	Console io.Writer // console driver output, stdout when nil
}

// Core is everything a run needs, wired but not started.
type Core struct {
	Cfg        *config.Config
	Eng        *render.Engine
	Driver     led.Driver
	DriverName string
	Preview    *preview.Server // nil when disabled
	Sensors    *Sensors
}

// Sensors bundles the stimulus source with its entropy supply.
type Sensors struct {
	Source  sensor.Source
	Entropy sensor.Entropy
	adc     *sensor.ADC

	stop context.CancelFunc
	done chan struct{}
}

// OpenSensors opens the ADCs when driving real hardware and falls back to
// the simulated hand wave otherwise.
func OpenSensors(cfg *config.Config) *Sensors {
	if cfg.Driver == "spi" {
		a, err := sensor.OpenADC(sensor.ADCOpts{
			Bus:            cfg.Sensor.ADC.Bus,
			Addresses:      cfg.Sensor.ADC.Addresses,
			MaxMilliV:      cfg.Sensor.ADC.MaxMilliV,
			EntropyChannel: cfg.Sensor.ADC.EntropyChannel,
		})
		if err == nil {
			s := &Sensors{Source: a, Entropy: a.Entropy(), adc: a}
			if s.Entropy == nil {
				s.Entropy = sensor.ClockEntropy{}
			}
			return s
		}
		log.Warn().Err(err).Msg("ADC unavailable, using simulated sensors")
	}
	return &Sensors{Source: sensor.NewSim(), Entropy: sensor.ClockEntropy{}}
}

// Start polls the ADCs in the background until ctx is done or Close.
func (s *Sensors) Start(ctx context.Context) {
	if s.adc == nil || s.done != nil {
		return
	}
	s.adc.PollOnce()
	ctx, s.stop = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.adc.Poll(ctx)
	}()
}

// Close stops the poller and waits for its last read before halting the
// converters.
func (s *Sensors) Close() error {
	if s.adc == nil {
		return nil
	}
	if s.done != nil {
		s.stop()
		<-s.done
	}
	return s.adc.Close()
}

// Build validates cfg and wires every component.
func Build(cfg *config.Config, opts Options) (*Core, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	primary := layout.Ring{Name: "outer", Count: cfg.Rings.Primary.Count}
	secondary := layout.Ring{Name: "inner", Count: cfg.Rings.Secondary.Count}

	a := cfg.Automaton
	rule := automaton.Rule{
		Threshold: a.Threshold, SelfOdds: a.SelfOdds,
		BoostLow: a.Boost.Low, BoostHigh: a.Boost.High,
		ReduceLow: a.Reduce.Low, ReduceHigh: a.Reduce.High,
		Scale: a.Scale,
	}
	field, err := automaton.NewField(primary.Count, rule)
	if err != nil {
		return nil, err
	}

	sens := OpenSensors(cfg)
	seed := a.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) ^ uint64(sens.Entropy.Sample())<<48
	}

	inj, err := sensor.NewInjector(cfg.Sensor.Map, primary.Count, cfg.Sensor.Threshold, cfg.Sensor.Growth)
	if err != nil {
		_ = sens.Close()
		return nil, err
	}
	pal, err := render.ParsePalette(cfg.Render.Palette)
	if err != nil {
		_ = sens.Close()
		return nil, err
	}
	comp, err := render.NewCompositor(primary, pal, cfg.Render.Floor)
	if err != nil {
		_ = sens.Close()
		return nil, err
	}
	comp.PlasmaY = cfg.Render.PlasmaY
	comp.DimCurve = cfg.Render.DimCurve

	down, err := layout.NewResampler(primary, secondary)
	if err != nil {
		_ = sens.Close()
		return nil, err
	}
	eng, err := render.NewEngine(field, automaton.NewSource(seed), comp, down)
	if err != nil {
		_ = sens.Close()
		return nil, err
	}
	eng.WithSensors(sens.Source, sensor.NewIntegrator(cfg.Sensor.Gain, cfg.Sensor.MaxDT), inj)
	eng.Entropy = sens.Entropy
	eng.ReseedPerFrame = a.ReseedPerFrame

	limit := render.PowerLimit{
		WhiteCap:     cfg.Power.WhiteCap,
		ChanMilliA:   cfg.Power.ChanMilliA,
		BudgetMilliA: cfg.Power.LimitAmps * 1000,
		Knee:         0.9,
		Floor:        cfg.Render.Floor,
	}
	if limit.Enabled() {
		eng.SetPost(render.PostPipeline{Limiter: limit.Apply})
	}

	if opts.Pattern != "" {
		p, err := pattern.New(opts.Pattern, holdFrames(cfg.FPS))
		if err != nil {
			_ = sens.Close()
			return nil, err
		}
		eng.SetOverlay(p)
	}

	drv, name, err := openDriver(cfg, opts)
	if err != nil {
		_ = sens.Close()
		return nil, err
	}
	core := &Core{Cfg: cfg, Eng: eng, Driver: drv, DriverName: name, Sensors: sens}
	if cfg.Preview.Addr != "" {
		core.Preview = preview.NewServer(primary, secondary, cfg.Brightness)
		core.Driver = led.Fanout{drv, core.Preview}
	}
	log.Info().
		Str("driver", name).
		Int("primary", primary.Count).
		Int("secondary", secondary.Count).
		Int("fps", cfg.FPS).
		Uint64("seed", seed).
		Msg("engine ready")
	return core, nil
}

// holdFrames keeps each test pattern step on screen for about 50 ms.
func holdFrames(fps int) int {
	if fps < 20 {
		return 1
	}
	return fps / 20
}

func openDriver(cfg *config.Config, opts Options) (led.Driver, string, error) {
	w := opts.Console
	if w == nil {
		w = os.Stdout
	}
	switch cfg.Driver {
	case "spi":
		p, err := stripOpts("outer", cfg.Rings.Primary)
		if err != nil {
			return nil, "", err
		}
		s, err := stripOpts("inner", cfg.Rings.Secondary)
		if err != nil {
			return nil, "", err
		}
		d, err := led.OpenNRZ(p, s, 0)
		if err == nil {
			return d, "spi", nil
		}
		log.Warn().Err(err).Msg("failed to find a SPI port, printing at the console")
		return led.NewConsole(w, consoleEvery(cfg.FPS), 0), "console", nil
	case "console":
		return led.NewConsole(w, consoleEvery(cfg.FPS), 0), "console", nil
	case "sim":
		return led.NewSim(log.Logger, cfg.FPS*5, 0), "sim", nil
	}
	return nil, "", fmt.Errorf("unknown driver %q", cfg.Driver)
}

func stripOpts(name string, r config.Ring) (led.StripOpts, error) {
	o, err := led.ParseOrder(r.ColorOrder)
	if err != nil {
		return led.StripOpts{}, fmt.Errorf("ring %s: %w", name, err)
	}
	return led.StripOpts{Name: name, Dev: r.SPI.Dev, Count: r.Count, Order: o}, nil
}

// consoleEvery draws about ten frames a second.
func consoleEvery(fps int) int {
	if fps < 10 {
		return 1
	}
	return fps / 10
}

// Close releases the driver and sensors.
func (c *Core) Close() error {
	return errors.Join(c.Driver.Close(), c.Sensors.Close())
}
