package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-aurora/internal/app"
	"github.com/coreman2200/funtimes-aurora/internal/config"
)

var (
	configPath  string
	preset      string
	driver      string
	fps         int
	brightness  uint8
	previewAddr string
	patternName string
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aurora",
		Short:         "sensor-driven cellular automaton for two LED rings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: runAurora,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "deployment preset: "+strings.Join(config.PresetNames(), " | "))
	pf.StringVar(&logLevel, "log-level", "info", "debug | info | warn | error")

	f := rootCmd.Flags()
	f.StringVar(&driver, "driver", "", "output driver: spi | console | sim")
	f.IntVar(&fps, "fps", 0, "target frames per second")
	f.Uint8Var(&brightness, "brightness", 0, "output brightness cap 0..255")
	f.StringVar(&previewAddr, "preview-addr", "", "websocket preview listen address, e.g. :8080")
	f.StringVar(&patternName, "pattern", "", "show a test pattern: address | index_sweep | rgb_channels")

	rootCmd.AddCommand(configCmd(), calibrateCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("aurora")
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	return nil
}

// loadConfig resolves defaults, preset, file and flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case configPath != "":
		cfg, err = config.LoadPreset(configPath, preset)
	case preset != "":
		cfg, err = config.FromPreset(preset)
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("driver") {
		cfg.Driver = driver
	}
	if fl.Changed("fps") {
		cfg.FPS = fps
	}
	if fl.Changed("brightness") {
		cfg.Brightness = brightness
	}
	if fl.Changed("preview-addr") {
		cfg.Preview.Addr = previewAddr
	}
	return cfg, nil
}

// validate logs every finding and fails on errors.
func validate(cfg *config.Config) error {
	issues, err := cfg.Validate()
	for _, d := range issues {
		log.Warn().Str("code", d.Code).Interface("evidence", d.Evidence).Msg(d.Summary)
	}
	return err
}

func runAurora(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := validate(cfg); err != nil {
		return err
	}

	core, err := app.Build(cfg, app.Options{Pattern: patternName})
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	core.Sensors.Start(ctx)

	sched := app.NewScheduler(core.Eng, core.Driver, cfg.FPS, cfg.Brightness)
	sched.SoftStart = time.Duration(cfg.Power.SoftStartMs) * time.Millisecond
	sched.StartupDelay = time.Duration(cfg.StartupDelayMs) * time.Millisecond

	if core.Preview != nil {
		sched.Controls = core.Preview.Controls
		sched.Stats = core.Preview.SetStats
		go func() {
			if err := core.Preview.ListenAndServe(ctx, cfg.Preview.Addr); err != nil {
				log.Error().Err(err).Str("addr", cfg.Preview.Addr).Msg("preview server")
			}
		}()
	}

	log.Info().
		Str("preset", cfg.Preset).
		Str("driver", core.DriverName).
		Int("budget_ms", cfg.FrameBudgetMs()).
		Msg("aurora running")
	err = sched.Run(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Info().Uint64("frames", core.Eng.Frame()).Msg("stopped")
	}
	return err
}
