package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SensorChannels is the number of IR sensors around the ring.
const SensorChannels = 6

type PowerCfg struct {
	LimitAmps   float64 `yaml:"limit_amps"`
	WhiteCap    float64 `yaml:"white_cap"`
	ChanMilliA  float64 `yaml:"chan_ma"`
	SoftStartMs int     `yaml:"soft_start_ms"`
}

type SPI struct {
	Dev string `yaml:"dev"` // periph port name, e.g. SPI0.0; empty picks the first port
}

type Ring struct {
	Count      int    `yaml:"count"`
	Chipset    string `yaml:"chipset"`     // WS2811 | WS2812
	ColorOrder string `yaml:"color_order"` // e.g. GRB, BRG
	SPI        SPI    `yaml:"spi,omitempty"`
}

type Rings struct {
	Primary   Ring `yaml:"primary"`
	Secondary Ring `yaml:"secondary"`
}

type ADC struct {
	Bus       string   `yaml:"bus"`       // i2creg name; empty picks the first bus
	Addresses []uint16 `yaml:"addresses"` // one ADS1115 per 4 channels
	MaxMilliV int      `yaml:"max_mv"`
	// EntropyChannel is an unconnected ADS1115 input used to perturb the generator.
	EntropyChannel int `yaml:"entropy_channel"`
}

type Sensor struct {
	Gain      float64 `yaml:"gain"`
	Threshold float64 `yaml:"threshold"`
	Growth    float64 `yaml:"growth"`
	MaxDT     float64 `yaml:"max_dt_s"` // 0 disables the dt clamp
	Map       []int   `yaml:"map"`      // sensor channel -> closest LED
	ADC       ADC     `yaml:"adc"`
}

type Range struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

type Automaton struct {
	Threshold      int    `yaml:"threshold"`
	SelfOdds       int    `yaml:"self_odds"`
	Boost          Range  `yaml:"boost"`
	Reduce         Range  `yaml:"reduce"`
	Scale          int    `yaml:"scale"`
	Seed           uint64 `yaml:"seed"` // 0 seeds from the entropy source
	ReseedPerFrame bool   `yaml:"reseed_per_frame"`
}

type Render struct {
	Palette  []string `yaml:"palette"` // hex anchors, first..last
	Floor    uint8    `yaml:"floor"`
	PlasmaY  int      `yaml:"plasma_y"`
	DimCurve bool     `yaml:"dim_curve"`
}

type Preview struct {
	Addr string `yaml:"addr"` // empty disables the websocket preview
}

type Config struct {
	Preset         string `yaml:"preset,omitempty"`
	Driver         string `yaml:"driver"` // spi | console | sim
	Brightness     uint8  `yaml:"brightness"`
	FPS            int    `yaml:"fps"`
	StartupDelayMs int    `yaml:"startup_delay_ms"`

	Rings     Rings     `yaml:"rings"`
	Sensor    Sensor    `yaml:"sensor"`
	Automaton Automaton `yaml:"automaton"`
	Render    Render    `yaml:"render"`
	Power     PowerCfg  `yaml:"power"`
	Preview   Preview   `yaml:"preview,omitempty"`
}

// Default returns the configuration of the first installation: a 46 LED
// WS2811 outer ring and a 12 LED WS2812 inner ring.
func Default() *Config {
	return &Config{
		Preset:         "aurora",
		Driver:         "sim",
		Brightness:     255,
		FPS:            200,
		StartupDelayMs: 500,
		Rings: Rings{
			Primary:   Ring{Count: 46, Chipset: "WS2811", ColorOrder: "BRG", SPI: SPI{Dev: "SPI0.0"}},
			Secondary: Ring{Count: 12, Chipset: "WS2812", ColorOrder: "GRB", SPI: SPI{Dev: "SPI1.0"}},
		},
		Sensor: Sensor{
			Gain:      0.6,
			Threshold: 30,
			Growth:    0.125,
			MaxDT:     1.0,
			Map:       []int{10, 43, 3, 30, 17, 21},
			ADC: ADC{
				Addresses:      []uint16{0x48, 0x49},
				MaxMilliV:      3300,
				EntropyChannel: 7,
			},
		},
		Automaton: Automaton{
			Threshold:      170,
			SelfOdds:       10,
			Boost:          Range{Low: 80, High: 290},
			Reduce:         Range{Low: 80, High: 300},
			Scale:          100,
			ReseedPerFrame: true,
		},
		Render: Render{
			Palette:  []string{"#321e00", "#ffff00", "#008000", "#2e8b57"},
			Floor:    8,
			PlasmaY:  1,
			DimCurve: true,
		},
		Power: PowerCfg{
			ChanMilliA:  20,
			WhiteCap:    3.0,
			SoftStartMs: 800,
		},
	}
}

// Load reads path on top of the defaults. A preset named in the file is
// applied first so that explicit keys in the file still win.
func Load(path string) (*Config, error) {
	return LoadPreset(path, "")
}

// LoadPreset is Load with the base preset chosen by the caller; a non-empty
// preset overrides the one named in the file.
func LoadPreset(path, preset string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if preset == "" {
		preset = head.Preset
	}
	c := Default()
	if preset != "" {
		if c, err = FromPreset(preset); err != nil {
			return nil, err
		}
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if preset != "" {
		c.Preset = preset
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// FrameBudgetMs is the per-frame time slot, 1000/FPS.
func (c *Config) FrameBudgetMs() int {
	if c.FPS <= 0 {
		return 0
	}
	return 1000 / c.FPS
}
