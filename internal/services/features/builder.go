package features

import (
	"fmt"
	"sort"

	"EnergyForecast/internal/domain/models"
	"EnergyForecast/pkg/util"
)

// Rolling window sizes, in days.
const (
	Window3  = 3
	Window7  = 7
	Window14 = 14
	Window30 = 30
)

// Build sorts records by date and derives one FeatureVector per record.
// The input slice is not modified.
func Build(records []models.DailyRecord) ([]models.FeatureVector, error) {
	sorted, err := Sorted(records)
	if err != nil {
		return nil, err
	}

	prefix := make([]float64, len(sorted)+1)
	for i, r := range sorted {
		prefix[i+1] = prefix[i] + r.TotalUnits
	}

	out := make([]models.FeatureVector, len(sorted))
	for i, r := range sorted {
		avg3 := rollingMean(prefix, i, Window3, r.TotalUnits)
		avg7 := rollingMean(prefix, i, Window7, r.TotalUnits)
		avg14 := rollingMean(prefix, i, Window14, r.TotalUnits)
		dow := util.Weekday(r.Date)
		out[i] = models.FeatureVector{
			Date:        r.Date,
			TotalUnits:  r.TotalUnits,
			AvgLast3:    avg3,
			AvgLast7:    avg7,
			AvgLast14:   avg14,
			AvgLast30:   rollingMean(prefix, i, Window30, r.TotalUnits),
			DayOfWeek:   dow,
			IsWeekend:   dow >= 5,
			Trend:       avg3 - avg7,
			LongTrend:   avg7 - avg14,
			HistoryDays: i + 1,
		}
	}
	return out, nil
}

// Latest returns the feature vector of the most recent record.
func Latest(records []models.DailyRecord) (models.FeatureVector, error) {
	fv, err := Build(records)
	if err != nil {
		return models.FeatureVector{}, err
	}
	return fv[len(fv)-1], nil
}

// Sorted returns a date-ascending copy of records, rejecting empty input,
// zero dates and duplicate days.
func Sorted(records []models.DailyRecord) ([]models.DailyRecord, error) {
	if len(records) == 0 {
		return nil, models.NewInputParseError("history must contain at least one record", nil)
	}
	out := make([]models.DailyRecord, len(records))
	copy(out, records)
	for i, r := range out {
		if r.Date.IsZero() {
			return nil, models.NewInputParseError(fmt.Sprintf("invalid date at position %d", i), nil)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	for i := 1; i < len(out); i++ {
		if out[i].Date.Equal(out[i-1].Date) {
			return nil, models.NewInputParseError(
				fmt.Sprintf("duplicate date %s in history", util.FormatDate(out[i].Date)), nil)
		}
	}
	return out, nil
}

// rollingMean is the mean of the window ending at i, or fallback while the window is incomplete.
func rollingMean(prefix []float64, i, window int, fallback float64) float64 {
	if i+1 < window {
		return fallback
	}
	return (prefix[i+1] - prefix[i+1-window]) / float64(window)
}
