package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-aurora/internal/app"
	"github.com/coreman2200/funtimes-aurora/internal/sensor"
)

var (
	calSeconds float64
	calRate    int
)

// calibrateCmd samples the sensors through the same filter the engine uses
// and plots each channel against the injection threshold.
func calibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "plot filtered sensor readings against the threshold",
		RunE:  runCalibrate,
	}
	cmd.Flags().Float64Var(&calSeconds, "seconds", 10, "sampling time")
	cmd.Flags().IntVar(&calRate, "rate", 50, "samples per second")
	cmd.Flags().StringVar(&driver, "driver", "", "spi reads the ADCs, anything else simulates")
	return cmd
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := validate(cfg); err != nil {
		return err
	}
	if calRate <= 0 {
		return fmt.Errorf("rate must be positive")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sens := app.OpenSensors(cfg)
	defer func() {
		stop()
		if err := sens.Close(); err != nil {
			log.Warn().Err(err).Msg("close sensors")
		}
	}()
	sens.Start(ctx)

	g := sensor.NewIntegrator(cfg.Sensor.Gain, cfg.Sensor.MaxDT)
	n := int(calSeconds * float64(calRate))
	series := make([][]float64, sensor.Channels)
	raw := make([][2]int, sensor.Channels)
	for ch := range raw {
		raw[ch] = [2]int{1 << 30, -1}
	}

	log.Info().Int("samples", n).Float64("seconds", calSeconds).Msg("calibrating")
	tick := time.NewTicker(time.Second / time.Duration(calRate))
	defer tick.Stop()
	start := time.Now()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
		now := time.Since(start)
		for ch := 0; ch < sensor.Channels; ch++ {
			r := sens.Source.ReadRaw(ch)
			raw[ch][0] = min(raw[ch][0], r)
			raw[ch][1] = max(raw[ch][1], r)
			series[ch] = append(series[ch], g.Integrate(ch, r, now))
		}
	}
	if n == 0 {
		return nil
	}

	threshold := make([]float64, n)
	for i := range threshold {
		threshold[i] = cfg.Sensor.Threshold
	}
	for ch, data := range series {
		graph := asciigraph.PlotMany([][]float64{data, threshold},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
			asciigraph.Caption(fmt.Sprintf("sensor %d -> LED %d (raw %d..%d, threshold %.0f)",
				ch, cfg.Sensor.Map[ch], raw[ch][0], raw[ch][1], cfg.Sensor.Threshold)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}
