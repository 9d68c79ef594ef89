package render

// PowerLimit is a two-stage output limiter:
//  1. per-LED white cap: scales (R,G,B) so R+G+B <= WhiteCap (in units of a
//     full channel, 3.0 = no cap)
//  2. global budget: estimates current draw across all frames passed in and
//     scales everything to stay under BudgetMilliA, starting gently at
//     Knee*budget.
//
// A red or green channel at or above Floor before scaling stays at Floor, so
// the limiter never pushes the compositor's minimum into the flicker zone.
// The floor wins over the budget by at most 2*Floor per LED.
type PowerLimit struct {
	WhiteCap     float64
	ChanMilliA   float64 // mA per channel at full scale; WS2812 is about 20
	BudgetMilliA float64 // 0 disables stage 2
	Knee         float64
	Floor        uint8
}

func (p PowerLimit) Enabled() bool {
	return (p.WhiteCap > 0 && p.WhiteCap < 3) || p.BudgetMilliA > 0
}

// Apply limits the frames in place. All frames share one budget since they
// hang off the same supply.
func (p PowerLimit) Apply(frames ...[]RGB) {
	if p.WhiteCap > 0 && p.WhiteCap < 3 {
		limit := p.WhiteCap * 255
		for _, f := range frames {
			for i := range f {
				s := float64(f[i].R) + float64(f[i].G) + float64(f[i].B)
				if s > limit {
					f[i] = p.scale(f[i], limit/s)
				}
			}
		}
	}

	if p.BudgetMilliA <= 0 {
		return
	}
	chanmA := p.ChanMilliA
	if chanmA <= 0 {
		chanmA = 20
	}
	knee := p.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	total := EstimateMilliA(chanmA, frames...)
	if total <= 0 {
		return
	}
	ratio := total / p.BudgetMilliA
	var s float64
	switch {
	case ratio <= knee:
		return
	case ratio <= 1:
		// map ratio in [knee,1] onto scale [1, budget/total]
		minS := p.BudgetMilliA / total
		t := (ratio - knee) / (1 - knee)
		s = 1 - t*(1-minS)
	default:
		s = p.BudgetMilliA / total
	}
	if s >= 1 {
		return
	}
	for _, f := range frames {
		for i := range f {
			f[i] = p.scale(f[i], s)
		}
	}
}

// EstimateMilliA sums channel levels times the per-channel full-scale current.
func EstimateMilliA(chanmA float64, frames ...[]RGB) float64 {
	var sum float64
	for _, f := range frames {
		for _, c := range f {
			sum += float64(c.R) + float64(c.G) + float64(c.B)
		}
	}
	return sum / 255 * chanmA
}

func (p PowerLimit) scale(c RGB, s float64) RGB {
	out := RGB{uint8(float64(c.R) * s), uint8(float64(c.G) * s), uint8(float64(c.B) * s)}
	if c.R >= p.Floor && out.R < p.Floor {
		out.R = p.Floor
	}
	if c.G >= p.Floor && out.G < p.Floor {
		out.G = p.Floor
	}
	return out
}
