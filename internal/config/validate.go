package config

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	diag "github.com/coreman2200/funtimes-aurora/internal/diagnostics"
)

// ValidationError reports every error-severity finding of Validate.
type ValidationError struct {
	Issues diag.List
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Issues.String()
}

// Validate checks the invariants the engine relies on. Warnings are returned
// alongside a nil error; any error-severity finding makes err non-nil.
func (c *Config) Validate() (diag.List, error) {
	var l diag.List

	switch c.Driver {
	case "spi", "console", "sim":
	default:
		l.Add(diag.Err, "CFG.DRIVER", "unknown driver", map[string]any{"driver": c.Driver})
	}
	if c.FPS <= 0 {
		l.Add(diag.Err, "CFG.FPS", "fps must be positive", map[string]any{"fps": c.FPS})
	}

	checkRing(&l, "primary", c.Rings.Primary)
	checkRing(&l, "secondary", c.Rings.Secondary)
	if c.Rings.Secondary.Count > c.Rings.Primary.Count {
		l.Add(diag.Warn, "CFG.RING.UPSAMPLE", "secondary ring larger than primary; LEDs will repeat", map[string]any{
			"primary": c.Rings.Primary.Count, "secondary": c.Rings.Secondary.Count,
		})
	}

	if len(c.Sensor.Map) != SensorChannels {
		l.Add(diag.Err, "CFG.SENSOR.MAP_SIZE", "sensor map must name one LED per sensor channel", map[string]any{
			"want": SensorChannels, "got": len(c.Sensor.Map),
		})
	}
	for ch, idx := range c.Sensor.Map {
		if idx < 0 || idx >= c.Rings.Primary.Count {
			l.Add(diag.Err, "CFG.SENSOR.MAP_RANGE", "sensor target outside the primary ring", map[string]any{
				"channel": ch, "led": idx, "count": c.Rings.Primary.Count,
			})
		}
	}
	if c.Sensor.Gain <= 0 {
		l.Add(diag.Warn, "CFG.SENSOR.GAIN", "non-positive sensor gain disables stimulus", map[string]any{"gain": c.Sensor.Gain})
	}
	if c.Sensor.MaxDT < 0 {
		l.Add(diag.Err, "CFG.SENSOR.MAX_DT", "max_dt_s must be >= 0", map[string]any{"max_dt_s": c.Sensor.MaxDT})
	}
	if c.Driver == "spi" && len(c.Sensor.ADC.Addresses)*4 < SensorChannels {
		l.Add(diag.Err, "CFG.SENSOR.ADC", "not enough ADS1115 converters for all sensor channels", map[string]any{
			"addresses": len(c.Sensor.ADC.Addresses),
		})
	}

	a := c.Automaton
	if a.Threshold < 0 || a.Threshold > 255 {
		l.Add(diag.Err, "CFG.CA.THRESHOLD", "activity threshold must be within 0..255", map[string]any{"threshold": a.Threshold})
	}
	if a.SelfOdds < 2 {
		l.Add(diag.Err, "CFG.CA.SELF_ODDS", "self_odds must be at least 2", map[string]any{"self_odds": a.SelfOdds})
	}
	if a.Boost.High <= a.Boost.Low || a.Reduce.High <= a.Reduce.Low {
		l.Add(diag.Err, "CFG.CA.RANGE", "boost/reduce ranges must have high > low", map[string]any{
			"boost": a.Boost, "reduce": a.Reduce,
		})
	}
	if a.Scale <= 0 {
		l.Add(diag.Err, "CFG.CA.SCALE", "scale must be positive", map[string]any{"scale": a.Scale})
	}

	if len(c.Render.Palette) < 2 {
		l.Add(diag.Err, "CFG.PALETTE.SIZE", "palette needs at least two anchors", map[string]any{"anchors": len(c.Render.Palette)})
	}
	for i, h := range c.Render.Palette {
		if _, err := colorful.Hex(h); err != nil {
			l.Add(diag.Err, "CFG.PALETTE.COLOR", "palette anchor is not a #rrggbb color", map[string]any{"index": i, "value": h})
		}
	}

	if errs := l.Errors(); len(errs) > 0 {
		return l, &ValidationError{Issues: errs}
	}
	return l, nil
}

func checkRing(l *diag.List, name string, r Ring) {
	if r.Count <= 0 {
		l.Add(diag.Err, "CFG.RING.COUNT", name+" ring needs at least one LED", map[string]any{"count": r.Count})
	}
	if !validOrder(r.ColorOrder) {
		l.Add(diag.Err, "CFG.RING.ORDER", name+" ring color order must be a permutation of RGB", map[string]any{"color_order": r.ColorOrder})
	}
	switch strings.ToUpper(r.Chipset) {
	case "WS2811", "WS2812", "WS2812B", "SK6812":
	default:
		l.Add(diag.Warn, "CFG.RING.CHIPSET", name+" ring chipset unknown; assuming WS2812 timing", map[string]any{"chipset": r.Chipset})
	}
}

func validOrder(o string) bool {
	if len(o) != 3 {
		return false
	}
	u := strings.ToUpper(o)
	return strings.Contains(u, "R") && strings.Contains(u, "G") && strings.Contains(u, "B")
}
