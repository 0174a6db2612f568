package forecast

import (
	"testing"

	"EnergyForecast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c, w := Classify(30)
	assert.Equal(t, models.ConfidenceHigh, c)
	assert.Nil(t, w)

	c, w = Classify(90)
	assert.Equal(t, models.ConfidenceHigh, c)
	assert.Nil(t, w)

	c, w = Classify(14)
	assert.Equal(t, models.ConfidenceMedium, c)
	require.NotNil(t, w)
	assert.Equal(t, "Prediction accuracy may be reduced with less than 30 days of data", *w)

	c, w = Classify(29)
	assert.Equal(t, models.ConfidenceMedium, c)
	assert.NotNil(t, w)

	c, w = Classify(5)
	assert.Equal(t, models.ConfidenceLow, c)
	require.NotNil(t, w)
	assert.Contains(t, *w, "5 days")
	assert.Equal(t, "Limited data (5 days). Predictions may be less accurate. Recommended: at least 14 days of data", *w)
}
