package config

import (
	"fmt"
	"sort"
)

// Presets are the known physical deployments. They differ only in ring
// sizes, gains and output levels; everything else comes from Default.
var Presets = map[string]func(c *Config){
	"aurora": func(c *Config) {},
	// Same hardware, bedroom levels. Cheap PWM drivers are steadier when dim,
	// so the floor can drop.
	"aurora-dim": func(c *Config) {
		c.Brightness = 96
		c.Render.Floor = 3
	},
	// Half-size build: 24 LED outer ring, 8 LED inner ring, sensors closer
	// together so each injection needs more gain.
	"aurora-mini": func(c *Config) {
		c.Rings.Primary.Count = 24
		c.Rings.Secondary.Count = 8
		c.Sensor.Map = []int{5, 22, 2, 15, 9, 11}
		c.Sensor.Growth = 0.25
		c.FPS = 120
	},
}

func FromPreset(name string) (*Config, error) {
	apply, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	c := Default()
	c.Preset = name
	apply(c)
	return c, nil
}

func PresetNames() []string {
	out := make([]string, 0, len(Presets))
	for k := range Presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
