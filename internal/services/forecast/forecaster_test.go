package forecast

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"EnergyForecast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRegressor returns fn(features) and keeps every input it saw.
type recordingRegressor struct {
	mu     sync.Mutex
	inputs [][]float64
	fn     func([]float64) float64
	err    error
	failAt int
}

func (r *recordingRegressor) Predict(_ context.Context, features []float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := append([]float64(nil), features...)
	r.inputs = append(r.inputs, cp)
	if r.err != nil && len(r.inputs) >= r.failAt {
		return 0, r.err
	}
	return r.fn(features), nil
}

func constant(v float64) *recordingRegressor {
	return &recordingRegressor{fn: func([]float64) float64 { return v }}
}

// Monday 2024-01-01.
var anchorDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func anchor(units float64) models.FeatureVector {
	return models.FeatureVector{
		Date:       anchorDate,
		TotalUnits: units,
		AvgLast3:   units,
		AvgLast7:   units,
		AvgLast14:  units,
		AvgLast30:  units,
	}
}

func TestForecastDaily(t *testing.T) {
	reg := constant(12.3456)
	out, err := New(reg).Forecast(context.Background(), anchor(10), 1)
	require.NoError(t, err)

	require.Len(t, out.Predictions, 1)
	p := out.Predictions[0]
	assert.Equal(t, 1, p.Day)
	assert.True(t, p.Date.Equal(anchorDate.AddDate(0, 0, 1)))
	assert.Equal(t, "Tuesday", p.DayName)
	assert.Equal(t, 12.35, p.PredictedUnits)
	assert.Equal(t, 12.3456, out.NextDayUnits)
	assert.Empty(t, out.Weeks)
	assert.Nil(t, out.PredictedMonthlyBill)

	// 12.3456 * 60 = 740.736 units.
	assert.InDelta(t, 740.736, out.TwoMonthUnits, 1e-9)
	assert.Equal(t, 5225.89, out.Predicted2MonthBill)

	require.Len(t, reg.inputs, 1)
	assert.Equal(t, []float64{10, 10, 10, 0, 1, 0}, reg.inputs[0])
}

func TestForecastWeekly(t *testing.T) {
	out, err := New(constant(10.004)).Forecast(context.Background(), anchor(10), 7)
	require.NoError(t, err)

	require.Len(t, out.Predictions, 7)
	for i, p := range out.Predictions {
		assert.Equal(t, i+1, p.Day)
		assert.True(t, p.Date.Equal(anchorDate.AddDate(0, 0, i+1)))
		if i > 0 {
			assert.Equal(t, 24*time.Hour, p.Date.Sub(out.Predictions[i-1].Date))
		}
	}
	require.Len(t, out.Weeks, 1)
	assert.Equal(t, 7, out.Weeks[0].Days)

	var sum float64
	for _, p := range out.Predictions {
		sum += p.PredictedUnits
	}
	assert.InDelta(t, sum, out.TotalUnits, 0.01)
	assert.InDelta(t, out.TotalUnits, out.Weeks[0].TotalUnits, 0.01)
	assert.Equal(t, 10.0, out.AvgDailyUnits)
	assert.True(t, out.StartDate.Equal(anchorDate.AddDate(0, 0, 1)))
	assert.True(t, out.EndDate.Equal(anchorDate.AddDate(0, 0, 7)))
	// avg_daily 10 * 60 = 600 units -> 1700 + 300*8.
	assert.Equal(t, 4100.0, out.Predicted2MonthBill)
	assert.Equal(t, "Sunday", out.Predictions[5].DayName)
}

func TestForecastTwoMonthUsesUnroundedAverage(t *testing.T) {
	calls := 0
	reg := &recordingRegressor{fn: func([]float64) float64 {
		calls++
		if calls == 1 {
			return 10.01
		}
		return 10
	}}
	out, err := New(reg).Forecast(context.Background(), anchor(10), 7)
	require.NoError(t, err)

	assert.Equal(t, 70.01, out.TotalUnits)
	assert.Equal(t, 10.0, out.AvgDailyUnits)
	// 70.01 / 7 * 60 = 600.0857 units, billed past the 300 tier at 8.
	assert.InDelta(t, 600.0857, out.TwoMonthUnits, 1e-4)
	assert.Equal(t, 4100.69, out.Predicted2MonthBill)
}

func TestForecastMonthly(t *testing.T) {
	out, err := New(constant(5)).Forecast(context.Background(), anchor(5), 30)
	require.NoError(t, err)

	require.Len(t, out.Predictions, 30)
	require.Len(t, out.Weeks, 5)
	for i, w := range out.Weeks[:4] {
		assert.Equal(t, i+1, w.Week)
		assert.Equal(t, 7, w.Days)
		assert.Equal(t, 35.0, w.TotalUnits)
		assert.Equal(t, 5.0, w.AvgDailyUnits)
		assert.Equal(t, 6*24*time.Hour, w.EndDate.Sub(w.StartDate))
	}
	last := out.Weeks[4]
	assert.Equal(t, 2, last.Days)
	assert.True(t, last.StartDate.Equal(anchorDate.AddDate(0, 0, 29)))
	assert.True(t, last.EndDate.Equal(anchorDate.AddDate(0, 0, 30)))

	assert.Equal(t, 150.0, out.TotalUnits)
	require.NotNil(t, out.PredictedMonthlyBill)
	assert.Equal(t, 700.0, *out.PredictedMonthlyBill)
	// 5 * 60 = 300 units.
	assert.Equal(t, 1700.0, out.Predicted2MonthBill)
}

func TestForecastStateRecurrence(t *testing.T) {
	// Each day predicts yesterday's units + 1.
	reg := &recordingRegressor{fn: func(f []float64) float64 { return f[0] + 1 }}
	out, err := New(reg).Forecast(context.Background(), anchor(10), 30)
	require.NoError(t, err)
	require.Len(t, reg.inputs, 30)

	// Day 2 sees the raw day-1 prediction and the smoothed avg3.
	in := reg.inputs[1]
	assert.InDelta(t, 11, in[0], 1e-9)
	assert.InDelta(t, (10*2+11)/3.0, in[1], 1e-9)
	assert.InDelta(t, 10, in[2], 1e-9)
	assert.InDelta(t, in[1]-in[2], in[3], 1e-9)
	assert.Equal(t, 2.0, in[4])

	// avg7 stays at the anchor value until seven predictions exist.
	for i := 1; i <= 6; i++ {
		assert.InDelta(t, 10, reg.inputs[i][2], 1e-9, "step %d", i+1)
	}
	// Day 8 uses the mean of predictions 11..17.
	assert.InDelta(t, 14, reg.inputs[7][2], 1e-9)
	// Day 9 slides the window to 12..18.
	assert.InDelta(t, 15, reg.inputs[8][2], 1e-9)

	assert.Equal(t, 40.0, out.Predictions[29].PredictedUnits)
}

func TestForecastAvg7UsesRoundedValues(t *testing.T) {
	reg := constant(1.006)
	_, err := New(reg).Forecast(context.Background(), anchor(1), 30)
	require.NoError(t, err)
	// Rounded 1.01 enters the window, raw 1.006 enters avg3.
	assert.InDelta(t, 1.01, reg.inputs[7][2], 1e-12)
	assert.InDelta(t, 1.006, reg.inputs[7][0], 1e-12)
}

func TestForecastWeekendFlagFollowsTargetDate(t *testing.T) {
	reg := constant(1)
	_, err := New(reg).Forecast(context.Background(), anchor(1), 7)
	require.NoError(t, err)
	dows := make([]float64, 0, 7)
	weekend := make([]float64, 0, 7)
	for _, in := range reg.inputs {
		dows = append(dows, in[4])
		weekend = append(weekend, in[5])
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 0}, dows)
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 1, 0}, weekend)
}

func TestForecastInvalidHorizon(t *testing.T) {
	for _, h := range []int{0, 2, 14, 31, -7} {
		_, err := New(constant(1)).Forecast(context.Background(), anchor(1), h)
		require.Error(t, err)
		assert.Equal(t, models.KindInvalidRequest, models.AsForecastError(err).Kind)
	}
}

func TestForecastPredictorFailure(t *testing.T) {
	reg := &recordingRegressor{fn: func([]float64) float64 { return 1 }, err: errors.New("boom"), failAt: 3}
	out, err := New(reg).Forecast(context.Background(), anchor(1), 7)
	assert.Nil(t, out)
	fe := models.AsForecastError(err)
	assert.Equal(t, models.KindPredictorFailure, fe.Kind)
	assert.Contains(t, fe.Error(), "day 3")
}

func TestForecastRejectsNonFinite(t *testing.T) {
	_, err := New(constant(math.NaN())).Forecast(context.Background(), anchor(1), 1)
	assert.Equal(t, models.KindPredictorFailure, models.AsForecastError(err).Kind)
}

func TestForecastNegativePredictions(t *testing.T) {
	out, err := New(constant(-2)).Forecast(context.Background(), anchor(1), 7)
	require.NoError(t, err)
	assert.Equal(t, -2.0, out.Predictions[0].PredictedUnits)
	assert.Equal(t, 0.0, out.Predicted2MonthBill)

	out, err = New(constant(-2), WithFloorAtZero(true)).Forecast(context.Background(), anchor(1), 7)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Predictions[0].PredictedUnits)
	assert.Equal(t, 0.0, out.TotalUnits)
}
