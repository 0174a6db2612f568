package training

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EnergyForecast/internal/ml/forest"
)

func syntheticExport(users, days int) string {
	var b strings.Builder
	b.WriteString("{")
	for u := 0; u < users; u++ {
		if u > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `"user%d":{`, u)
		for d := 0; d < days; d++ {
			if d > 0 {
				b.WriteString(",")
			}
			units := 10 + float64(u) + float64(d%7)
			date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d).Format("2006-01-02")
			fmt.Fprintf(&b, `"k%03d":{"date":"%s","total_units":%.1f}`, d, date, units)
		}
		b.WriteString("}")
	}
	b.WriteString("}")
	return b.String()
}

func TestFlatten(t *testing.T) {
	e, err := ReadExport(strings.NewReader(`{
		"u1": {
			"a": {"date": "2024-01-02", "total_units": 5},
			"b": {"date": "2024-01-01", "total_units": 4},
			"c": {"date": "2024-01-02", "total_units": 6},
			"d": {"total_units": 1},
			"e": {"date": "not a date", "total_units": 1},
			"f": {"date": "2024-01-03", "total_units": -2},
			"g": "profile"
		},
		"u2": {"x": {"note": "empty"}}
	}`))
	require.NoError(t, err)

	series, stats := e.Flatten()
	require.Len(t, series, 1)
	assert.Equal(t, "u1", series[0].User)
	require.Len(t, series[0].Records, 2)
	assert.Equal(t, 4.0, series[0].Records[0].TotalUnits)
	assert.Equal(t, 6.0, series[0].Records[1].TotalUnits)
	assert.Equal(t, FlattenStats{Entries: 8, Skipped: 5, Duplicates: 1}, stats)
}

func TestReadExport_Invalid(t *testing.T) {
	_, err := ReadExport(strings.NewReader(`[1,2]`))
	assert.Error(t, err)
}

func TestBuildDataset_Targets(t *testing.T) {
	e, err := ReadExport(strings.NewReader(syntheticExport(1, 10)))
	require.NoError(t, err)
	series, _ := e.Flatten()

	same, err := BuildDataset(series, TargetSameDay)
	require.NoError(t, err)
	// days 7..10 have a complete 7-day window
	assert.Equal(t, 4, same.Len())
	assert.Equal(t, same.X[0][0], same.Y[0])

	next, err := BuildDataset(series, TargetNextDay)
	require.NoError(t, err)
	assert.Equal(t, 3, next.Len())
	assert.Equal(t, same.X[1][0], next.Y[0])
	assert.Len(t, next.X[0], len(FeatureNames))

	_, err = BuildDataset(series, "yesterday")
	assert.Error(t, err)
}

func TestBuildDataset_CalendarFeaturesFollowLabelDay(t *testing.T) {
	// 2024-01-01 is a Monday.
	e, err := ReadExport(strings.NewReader(syntheticExport(1, 9)))
	require.NoError(t, err)
	series, _ := e.Flatten()

	next, err := BuildDataset(series, TargetNextDay)
	require.NoError(t, err)
	require.Equal(t, 2, next.Len())
	// Row 0 is built on Sunday 2024-01-07 and labelled with Monday 2024-01-08.
	assert.Equal(t, 0.0, next.X[0][4])
	assert.Equal(t, 0.0, next.X[0][5])
	assert.Equal(t, 10.0, next.Y[0])
	assert.Equal(t, 1.0, next.X[1][4])

	same, err := BuildDataset(series, TargetSameDay)
	require.NoError(t, err)
	assert.Equal(t, 6.0, same.X[0][4])
	assert.Equal(t, 1.0, same.X[0][5])
}

func TestBuildDataset_SkipsGaps(t *testing.T) {
	e, err := ReadExport(strings.NewReader(`{"u":{
		"1":{"date":"2024-01-01","total_units":1},
		"2":{"date":"2024-01-02","total_units":1},
		"3":{"date":"2024-01-03","total_units":1},
		"4":{"date":"2024-01-04","total_units":1},
		"5":{"date":"2024-01-05","total_units":1},
		"6":{"date":"2024-01-06","total_units":1},
		"7":{"date":"2024-01-07","total_units":1},
		"8":{"date":"2024-01-09","total_units":1}
	}}`))
	require.NoError(t, err)
	series, _ := e.Flatten()

	ds, err := BuildDataset(series, TargetNextDay)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestTrainer_FitAndSave(t *testing.T) {
	e, err := ReadExport(strings.NewReader(syntheticExport(3, 40)))
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Trees = 8
	opts.MaxDepth = 6
	res, err := NewTrainer(opts, nil).Fit(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 3*33, res.Rows)
	assert.Len(t, res.Regressor.Regressor.Trees, 8)
	assert.Contains(t, res.Regressor.Metrics, "train_rmse")
	assert.LessOrEqual(t, res.Anomaly.Metrics["outlier_ratio"], 0.5)

	dir := t.TempDir()
	regPath, isoPath, err := res.Save(dir)
	require.NoError(t, err)

	a, err := forest.LoadArtifact(regPath, forest.KindRegressor)
	require.NoError(t, err)
	assert.Equal(t, FeatureNames, a.Features)
	_, err = forest.LoadArtifact(isoPath, forest.KindIsolation)
	require.NoError(t, err)
}

func TestTrainer_NoRows(t *testing.T) {
	e, err := ReadExport(strings.NewReader(syntheticExport(2, 5)))
	require.NoError(t, err)

	_, err = NewTrainer(DefaultOptions(), nil).Fit(context.Background(), e)
	assert.ErrorIs(t, err, ErrNoRows)
}
