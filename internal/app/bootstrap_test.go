package app

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/funtimes-aurora/internal/config"
	"github.com/coreman2200/funtimes-aurora/internal/led"
	"github.com/coreman2200/funtimes-aurora/internal/render"
	"github.com/coreman2200/funtimes-aurora/internal/sensor"
)

func TestBuildSimDefaults(t *testing.T) {
	cfg := config.Default()
	core, err := Build(cfg, Options{})
	require.NoError(t, err)
	defer core.Close()

	assert.Equal(t, "sim", core.DriverName)
	assert.Nil(t, core.Preview)
	assert.Len(t, core.Eng.Primary, 46)
	assert.Len(t, core.Eng.Secondary, 12)
	assert.True(t, core.Eng.ReseedPerFrame)
	assert.NotNil(t, core.Eng.Entropy)
}

func TestBuildWithPreviewFansOut(t *testing.T) {
	cfg := config.Default()
	cfg.Preview.Addr = "127.0.0.1:0"
	core, err := Build(cfg, Options{})
	require.NoError(t, err)

	require.NotNil(t, core.Preview)
	fan, ok := core.Driver.(led.Fanout)
	require.True(t, ok)
	assert.Len(t, fan, 2)
}

func TestBuildConsoleDriver(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Driver = "console"
	core, err := Build(cfg, Options{Console: &buf})
	require.NoError(t, err)
	assert.Equal(t, "console", core.DriverName)

	core.Eng.RenderOnce(0)
	require.NoError(t, core.Driver.Show(core.Eng.Primary, core.Eng.Secondary))
	assert.Contains(t, buf.String(), "●")
}

func TestBuildMiniPreset(t *testing.T) {
	cfg, err := config.FromPreset("aurora-mini")
	require.NoError(t, err)
	core, err := Build(cfg, Options{Pattern: "address"})
	require.NoError(t, err)
	assert.Len(t, core.Eng.Primary, 24)
	assert.Len(t, core.Eng.Secondary, 8)
	assert.NotNil(t, core.Eng.Overlay())
}

func TestBuildRejectsBadInput(t *testing.T) {
	cfg := config.Default()
	cfg.Sensor.Map = []int{1, 2, 3}
	_, err := Build(cfg, Options{})
	var verr *config.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = Build(config.Default(), Options{Pattern: "plane_z"})
	assert.Error(t, err)
}

func TestDefaultRingsOpenAsStrips(t *testing.T) {
	cfg := config.Default()
	for name, r := range map[string]config.Ring{"outer": cfg.Rings.Primary, "inner": cfg.Rings.Secondary} {
		o, err := stripOpts(name, r)
		require.NoError(t, err)

		var buf bytes.Buffer
		s, err := led.NewStrip(spitest.NewRecordRaw(&buf), o)
		require.NoError(t, err, name)
		require.NoError(t, s.Write(make([]render.RGB, r.Count), 255))
		assert.NotZero(t, buf.Len(), name)
	}
}

func TestStripOptsRejectsBadOrder(t *testing.T) {
	_, err := stripOpts("outer", config.Ring{Count: 46, ColorOrder: "RGX"})
	assert.Error(t, err)
}

type countingPin struct{ reads *atomic.Int64 }

func (p countingPin) Read() (analog.Sample, error) {
	p.reads.Add(1)
	time.Sleep(100 * time.Microsecond)
	return analog.Sample{}, nil
}

func TestSensorsCloseStopsPoller(t *testing.T) {
	var reads atomic.Int64
	pins := make([]sensor.Sampler, sensor.Channels)
	for i := range pins {
		pins[i] = countingPin{&reads}
	}
	a, err := sensor.NewADC(pins, nil)
	require.NoError(t, err)
	s := &Sensors{Source: a, Entropy: sensor.ClockEntropy{}, adc: a}

	s.Start(context.Background())
	require.Eventually(t, func() bool { return reads.Load() > 3*sensor.Channels }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())

	after := reads.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, reads.Load())
}
