package features

import (
	"fmt"
	"math"

	"EnergyForecast/internal/domain/models"
	"EnergyForecast/pkg/util"
)

// RawReading is a history entry as submitted by a client.
type RawReading struct {
	Date       string
	TotalUnits float64
}

// ParseHistory converts raw readings into DailyRecords. Every failure is an InputParseError.
func ParseHistory(raw []RawReading) ([]models.DailyRecord, error) {
	if len(raw) == 0 {
		return nil, models.NewInputParseError("history must contain at least one record", nil)
	}
	out := make([]models.DailyRecord, 0, len(raw))
	for i, r := range raw {
		d, err := util.ParseDate(r.Date)
		if err != nil {
			return nil, models.NewInputParseError(fmt.Sprintf("invalid date at position %d", i), err)
		}
		if math.IsNaN(r.TotalUnits) || math.IsInf(r.TotalUnits, 0) || r.TotalUnits < 0 {
			return nil, models.NewInputParseError(
				fmt.Sprintf("total_units at position %d must be a non-negative number", i), nil)
		}
		out = append(out, models.DailyRecord{Date: d, TotalUnits: r.TotalUnits})
	}
	return Sorted(out)
}

// ModelInput lays out the regressor feature vector:
// [units, avg_3, avg_7, trend, day_of_week, is_weekend].
func ModelInput(units, avg3, avg7, trend float64, dow int, weekend bool) []float64 {
	w := 0.0
	if weekend {
		w = 1
	}
	return []float64{units, avg3, avg7, trend, float64(dow), w}
}
