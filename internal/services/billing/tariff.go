package billing

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Tier is one band of the progressive tariff. UpTo of zero means unbounded.
type Tier struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// DefaultTiers: 0-100 at 4, 100-200 at 6, 200-300 at 7, above 300 at 8.
var DefaultTiers = []Tier{
	{UpTo: decimal.NewFromInt(100), Rate: decimal.NewFromInt(4)},
	{UpTo: decimal.NewFromInt(200), Rate: decimal.NewFromInt(6)},
	{UpTo: decimal.NewFromInt(300), Rate: decimal.NewFromInt(7)},
	{Rate: decimal.NewFromInt(8)},
}

// BillingDays is the length of one billing cycle.
const BillingDays = 60

// Tariff computes progressive bills.
type Tariff struct {
	tiers []Tier
}

// NewTariff builds a tariff from tiers ordered by ascending upper bound.
func NewTariff(tiers []Tier) *Tariff {
	return &Tariff{tiers: tiers}
}

// Bill charges units cumulatively across tiers and rounds once to 2 decimals.
// Negative units bill as zero.
func (t *Tariff) Bill(units float64) float64 {
	if !finite(units) {
		return 0
	}
	u := decimal.NewFromFloat(units)
	if !u.IsPositive() {
		return 0
	}
	total := decimal.Zero
	lower := decimal.Zero
	for _, tier := range t.tiers {
		if tier.UpTo.IsZero() || u.LessThanOrEqual(tier.UpTo) {
			total = total.Add(u.Sub(lower).Mul(tier.Rate))
			break
		}
		total = total.Add(tier.UpTo.Sub(lower).Mul(tier.Rate))
		lower = tier.UpTo
	}
	f, _ := total.Round(2).Float64()
	return f
}

var defaultTariff = NewTariff(DefaultTiers)

// Bill uses the default tariff.
func Bill(units float64) float64 {
	return defaultTariff.Bill(units)
}

// Round2 rounds the exact binary value of v to 2 decimals, ties to even.
// 2.675 is stored just below the tie and rounds to 2.67; 0.125 rounds to 0.12.
func Round2(v float64) float64 {
	if !finite(v) || v == 0 {
		return v
	}
	_, exp := math.Frexp(v)
	digits := 53 - exp
	if digits < 0 {
		digits = 0
	}
	d, err := decimal.NewFromString(new(big.Float).SetFloat64(v).Text('f', digits))
	if err != nil {
		return v
	}
	f, _ := d.RoundBank(2).Float64()
	return f
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
