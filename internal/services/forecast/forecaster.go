package forecast

import (
	"context"
	"fmt"
	"math"

	"EnergyForecast/internal/domain/models"
	domsvc "EnergyForecast/internal/domain/service"
	"EnergyForecast/internal/services/billing"
	"EnergyForecast/internal/services/features"
	"EnergyForecast/pkg/util"
)

const weekLen = 7

// Forecaster runs recursive multi-day forecasts on top of a next-day regressor.
type Forecaster struct {
	reg         domsvc.Regressor
	tariff      *billing.Tariff
	floorAtZero bool
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithFloorAtZero clamps negative predictions to zero before they are recorded and fed back.
func WithFloorAtZero(enabled bool) Option {
	return func(f *Forecaster) { f.floorAtZero = enabled }
}

// WithTariff overrides the billing tariff.
func WithTariff(t *billing.Tariff) Option {
	return func(f *Forecaster) {
		if t != nil {
			f.tariff = t
		}
	}
}

func New(reg domsvc.Regressor, opts ...Option) *Forecaster {
	f := &Forecaster{reg: reg, tariff: billing.NewTariff(billing.DefaultTiers)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// state is the rolling context carried from one forecast day to the next.
type state struct {
	units float64
	avg3  float64
	avg7  float64
	trend float64
}

// ValidHorizon reports whether h is a supported horizon.
func ValidHorizon(h int) bool {
	return h == 1 || h == weekLen || h == 30
}

// Forecast predicts horizon days past the anchor. Each day's raw prediction becomes
// the next day's units. avg3 follows (avg3*2 + p) / 3 on every step, while avg7
// becomes the plain mean of the last seven rounded predictions once seven exist.
func (f *Forecaster) Forecast(ctx context.Context, anchor models.FeatureVector, horizon int) (*models.HorizonForecast, error) {
	if !ValidHorizon(horizon) {
		return nil, models.NewInvalidRequestError(
			fmt.Sprintf("horizon must be 1, 7 or 30 days, got %d", horizon), nil)
	}

	st := state{
		units: anchor.TotalUnits,
		avg3:  anchor.AvgLast3,
		avg7:  anchor.AvgLast7,
		trend: anchor.Trend,
	}
	preds := make([]models.DailyPrediction, 0, horizon)
	rounded := make([]float64, 0, horizon)
	var nextDay float64

	for step := 1; step <= horizon; step++ {
		date := util.AddDays(anchor.Date, step)
		dow := util.Weekday(date)

		p, err := f.reg.Predict(ctx, features.ModelInput(st.units, st.avg3, st.avg7, st.trend, dow, dow >= 5))
		if err != nil {
			return nil, models.NewPredictorFailure(fmt.Errorf("day %d: %w", step, err))
		}
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, models.NewPredictorFailure(fmt.Errorf("day %d: non-finite prediction %v", step, p))
		}
		if f.floorAtZero && p < 0 {
			p = 0
		}
		if step == 1 {
			nextDay = p
		}

		r := billing.Round2(p)
		rounded = append(rounded, r)
		preds = append(preds, models.DailyPrediction{
			Day:            step,
			Date:           date,
			DayName:        date.Weekday().String(),
			PredictedUnits: r,
		})

		st.units = p
		st.avg3 = (st.avg3*2 + p) / 3
		if step >= weekLen {
			st.avg7 = mean(rounded[step-weekLen : step])
		}
		st.trend = st.avg3 - st.avg7
	}

	total := billing.Round2(sum(rounded))
	out := &models.HorizonForecast{
		Horizon:       horizon,
		Predictions:   preds,
		TotalUnits:    total,
		AvgDailyUnits: billing.Round2(total / float64(horizon)),
		StartDate:     preds[0].Date,
		EndDate:       preds[len(preds)-1].Date,
		NextDayUnits:  nextDay,
	}
	if horizon >= weekLen {
		out.Weeks = summarizeWeeks(preds)
	}

	// AvgDailyUnits is display-rounded; the projection scales the unrounded mean.
	if horizon == 1 {
		out.TwoMonthUnits = nextDay * billing.BillingDays
	} else {
		out.TwoMonthUnits = sum(rounded) / float64(horizon) * billing.BillingDays
	}
	out.Predicted2MonthBill = f.tariff.Bill(out.TwoMonthUnits)
	if horizon == 30 {
		monthly := f.tariff.Bill(total)
		out.PredictedMonthlyBill = &monthly
	}
	return out, nil
}

// summarizeWeeks groups predictions into consecutive 7-day blocks; a trailing
// remainder forms a shorter final block.
func summarizeWeeks(preds []models.DailyPrediction) []models.WeeklySummary {
	weeks := make([]models.WeeklySummary, 0, (len(preds)+weekLen-1)/weekLen)
	for start := 0; start < len(preds); start += weekLen {
		end := start + weekLen
		if end > len(preds) {
			end = len(preds)
		}
		block := preds[start:end]
		var total float64
		for _, p := range block {
			total += p.PredictedUnits
		}
		total = billing.Round2(total)
		weeks = append(weeks, models.WeeklySummary{
			Week:          len(weeks) + 1,
			Days:          len(block),
			TotalUnits:    total,
			AvgDailyUnits: billing.Round2(total / float64(len(block))),
			StartDate:     block[0].Date,
			EndDate:       block[len(block)-1].Date,
		})
	}
	return weeks
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return sum(v) / float64(len(v))
}
