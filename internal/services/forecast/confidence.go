package forecast

import (
	"fmt"

	"EnergyForecast/internal/domain/models"
)

const (
	highConfidenceDays   = 30
	mediumConfidenceDays = 14
)

// Classify grades a forecast by the number of history days behind it.
func Classify(dataDays int) (models.Confidence, *string) {
	switch {
	case dataDays >= highConfidenceDays:
		return models.ConfidenceHigh, nil
	case dataDays >= mediumConfidenceDays:
		w := "Prediction accuracy may be reduced with less than 30 days of data"
		return models.ConfidenceMedium, &w
	default:
		w := fmt.Sprintf("Limited data (%d days). Predictions may be less accurate. Recommended: at least 14 days of data", dataDays)
		return models.ConfidenceLow, &w
	}
}
