package features

import (
	"testing"

	"EnergyForecast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHistory(t *testing.T) {
	recs, err := ParseHistory([]RawReading{
		{Date: "2024-01-03", TotalUnits: 3},
		{Date: "2024-01-01T00:00:00Z", TotalUnits: 1},
		{Date: "01/02/2024", TotalUnits: 2},
	})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{recs[0].TotalUnits, recs[1].TotalUnits, recs[2].TotalUnits})
}

func TestParseHistoryRejects(t *testing.T) {
	cases := map[string][]RawReading{
		"empty":       nil,
		"bad date":    {{Date: "yesterday", TotalUnits: 1}},
		"duplicate":   {{Date: "2024-01-01", TotalUnits: 1}, {Date: "2024-01-01T10:00:00Z", TotalUnits: 2}},
		"negative":    {{Date: "2024-01-01", TotalUnits: -1}},
		"missing day": {{TotalUnits: 1}},
	}
	for name, in := range cases {
		_, err := ParseHistory(in)
		require.Error(t, err, name)
		assert.Equal(t, models.KindInputParse, models.AsForecastError(err).Kind, name)
	}
}

func TestModelInput(t *testing.T) {
	assert.Equal(t, []float64{10, 9, 8, 1, 5, 1}, ModelInput(10, 9, 8, 1, 5, true))
	assert.Equal(t, []float64{10, 9, 8, 1, 2, 0}, ModelInput(10, 9, 8, 1, 2, false))
}
