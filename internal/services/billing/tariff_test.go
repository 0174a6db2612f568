package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBillKnownValues(t *testing.T) {
	cases := []struct {
		units float64
		want  float64
	}{
		{0, 0},
		{-5, 0},
		{50, 200},
		{100, 400},
		{150, 700},
		{200, 1000},
		{250, 1350},
		{300, 1700},
		{305, 1740},
		{12.345, 49.38},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Bill(c.units), "units=%v", c.units)
	}
}

func TestBillSlopeMatchesTier(t *testing.T) {
	slopes := []struct {
		at   float64
		rate float64
	}{
		{50, 4}, {150, 6}, {250, 7}, {400, 8},
	}
	for _, s := range slopes {
		d := Bill(s.at+10) - Bill(s.at)
		assert.InDelta(t, s.rate*10, d, 1e-9, "at=%v", s.at)
	}
}

func TestBillNonDecreasing(t *testing.T) {
	prev := Bill(0)
	for u := 0.0; u <= 600; u += 0.37 {
		b := Bill(u)
		assert.GreaterOrEqual(t, b, prev, "units=%v", u)
		prev = b
	}
}

func TestCustomTariff(t *testing.T) {
	tr := NewTariff([]Tier{
		{UpTo: decimal.NewFromInt(10), Rate: decimal.NewFromInt(1)},
		{Rate: decimal.NewFromInt(2)},
	})
	assert.Equal(t, 10.0, tr.Bill(10))
	assert.Equal(t, 30.0, tr.Bill(20))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, 10.0, Round2(9.999))
	assert.Equal(t, -1.24, Round2(-1.235))
}

func TestRound2_ExactBinaryTiesToEven(t *testing.T) {
	cases := map[float64]float64{
		2.675:  2.67,
		1.005:  1.0,
		0.285:  0.28,
		10.005: 10.01,
		0.125:  0.12,
		0.375:  0.38,
		-0.125: -0.12,
		1e300:  1e300,
	}
	for in, want := range cases {
		assert.Equal(t, want, Round2(in), "Round2(%v)", in)
	}
}
