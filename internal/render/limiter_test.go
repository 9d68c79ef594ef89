package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func white(n int) []RGB {
	f := make([]RGB, n)
	for i := range f {
		f[i] = RGB{255, 255, 255}
	}
	return f
}

func TestPowerLimitBudgetClamp(t *testing.T) {
	buf := white(10)
	p := PowerLimit{WhiteCap: 3, ChanMilliA: 20, BudgetMilliA: 300, Knee: 0.9}
	assert.InDelta(t, 600, EstimateMilliA(20, buf), 1e-9)

	p.Apply(buf)
	assert.LessOrEqual(t, EstimateMilliA(20, buf), 300.0)
	assert.Greater(t, EstimateMilliA(20, buf), 290.0)
}

func TestPowerLimitSharesBudgetAcrossFrames(t *testing.T) {
	a, b := white(5), white(5)
	PowerLimit{ChanMilliA: 20, BudgetMilliA: 300}.Apply(a, b)
	assert.LessOrEqual(t, EstimateMilliA(20, a, b), 300.0)
	assert.Equal(t, a[0], b[0])
}

func TestPowerLimitBelowKneeIsUntouched(t *testing.T) {
	buf := make([]RGB, 10)
	for i := range buf {
		buf[i] = RGB{255, 0, 0}
	}
	PowerLimit{ChanMilliA: 20, BudgetMilliA: 300}.Apply(buf)
	for _, c := range buf {
		assert.Equal(t, RGB{255, 0, 0}, c)
	}
}

func TestWhiteCap(t *testing.T) {
	buf := white(1)
	PowerLimit{WhiteCap: 1.5}.Apply(buf)
	sum := int(buf[0].R) + int(buf[0].G) + int(buf[0].B)
	assert.LessOrEqual(t, sum, 383)
	assert.Equal(t, buf[0].R, buf[0].B)
}

func TestPowerLimitEnabled(t *testing.T) {
	assert.False(t, PowerLimit{}.Enabled())
	assert.False(t, PowerLimit{WhiteCap: 3}.Enabled())
	assert.True(t, PowerLimit{WhiteCap: 2}.Enabled())
	assert.True(t, PowerLimit{BudgetMilliA: 1000}.Enabled())
}

func TestPowerLimitKeepsFloor(t *testing.T) {
	buf := make([]RGB, 20)
	for i := range buf {
		buf[i] = RGB{255, 255, 255}
	}
	buf[0] = RGB{8, 8, 0}
	buf[1] = RGB{0, 30, 0}
	PowerLimit{ChanMilliA: 20, BudgetMilliA: 100, Floor: 8}.Apply(buf)

	assert.Equal(t, RGB{8, 8, 0}, buf[0])
	assert.Equal(t, uint8(0), buf[1].R)
	assert.Equal(t, uint8(8), buf[1].G)
	assert.GreaterOrEqual(t, buf[5].R, uint8(8))
	assert.Less(t, buf[5].R, uint8(30))
}
