package training

import (
	"fmt"

	"EnergyForecast/internal/services/features"
	"EnergyForecast/pkg/util"
)

// Targets.
const (
	TargetNextDay = "next-day"
	TargetSameDay = "same-day"
)

// MinHistoryDays drops rows whose 7-day window is incomplete.
const MinHistoryDays = features.Window7

// Dataset is the supervised training table.
type Dataset struct {
	X     [][]float64
	Y     []float64
	Units [][]float64 // single-column input for the anomaly model
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.X) }

// BuildDataset derives features per user and assembles rows. For TargetNextDay the
// label is the following calendar day's units; rows without one are dropped.
func BuildDataset(series []UserSeries, target string) (*Dataset, error) {
	if target != TargetNextDay && target != TargetSameDay {
		return nil, fmt.Errorf("unknown target %q", target)
	}

	ds := &Dataset{}
	for _, s := range series {
		vecs, err := features.Build(s.Records)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", s.User, err)
		}
		for i, fv := range vecs {
			if fv.HistoryDays < MinHistoryDays {
				continue
			}
			// Calendar features describe the day being predicted, as at serving time.
			y, dow, weekend := fv.TotalUnits, fv.DayOfWeek, fv.IsWeekend
			if target == TargetNextDay {
				if i+1 >= len(vecs) || !vecs[i+1].Date.Equal(util.AddDays(fv.Date, 1)) {
					continue
				}
				next := vecs[i+1]
				y, dow, weekend = next.TotalUnits, next.DayOfWeek, next.IsWeekend
			}
			ds.X = append(ds.X, features.ModelInput(fv.TotalUnits, fv.AvgLast3, fv.AvgLast7, fv.Trend, dow, weekend))
			ds.Y = append(ds.Y, y)
			ds.Units = append(ds.Units, []float64{fv.TotalUnits})
		}
	}
	return ds, nil
}
