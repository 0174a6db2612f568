package models

import (
	"fmt"
	"time"
)

// PredictionType selects the forecast horizon.
type PredictionType string

const (
	PredictionDaily   PredictionType = "daily"
	PredictionWeekly  PredictionType = "weekly"
	PredictionMonthly PredictionType = "monthly"
)

// ParsePredictionType maps the request value to a PredictionType. Empty means daily.
func ParsePredictionType(s string) (PredictionType, error) {
	switch PredictionType(s) {
	case "", PredictionDaily:
		return PredictionDaily, nil
	case PredictionWeekly:
		return PredictionWeekly, nil
	case PredictionMonthly:
		return PredictionMonthly, nil
	}
	return "", InvalidPredictionTypeError(s)
}

// InvalidPredictionTypeError is the client error for an unsupported prediction_type.
func InvalidPredictionTypeError(s string) error {
	return NewInvalidRequestError("Invalid prediction_type. Use 'daily', 'weekly', or 'monthly'",
		fmt.Errorf("unsupported prediction_type %q", s))
}

// Horizon returns the number of forecast days.
func (p PredictionType) Horizon() int {
	switch p {
	case PredictionWeekly:
		return 7
	case PredictionMonthly:
		return 30
	default:
		return 1
	}
}

// Confidence grades how much history backed a forecast.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// HorizonForecast is the output of one multi-step forecast run.
type HorizonForecast struct {
	Horizon       int
	Predictions   []DailyPrediction
	TotalUnits    float64
	AvgDailyUnits float64
	StartDate     time.Time
	EndDate       time.Time
	Weeks         []WeeklySummary
	// NextDayUnits is the unrounded first-step prediction.
	NextDayUnits float64
	// TwoMonthUnits projects the horizon onto a 60-day billing cycle.
	TwoMonthUnits        float64
	Predicted2MonthBill  float64
	PredictedMonthlyBill *float64
}

// ForecastResult is the full answer to a forecast request.
type ForecastResult struct {
	MeterID              string
	PredictionType       PredictionType
	NextDayUnits         float64
	Predicted2MonthBill  float64
	PredictedMonthlyBill *float64
	AnomalyDetected      bool
	Confidence           Confidence
	DataDays             int
	Warning              *string
	Forecast             *HorizonForecast
	CreatedAt            time.Time
}

// Insights combines weekly and monthly outlooks for a meter.
type Insights struct {
	MeterID              string
	WeeklyUnits          float64
	MonthlyUnits         float64
	PredictedMonthlyBill float64
	AnomalyDetected      bool
	UsageLevel           string
	Confidence           Confidence
	DataDays             int
}
