package models

import "time"

// ReadingMessage is the payload of a meter reading on the readings topic.
type ReadingMessage struct {
	MeterID    string  `json:"meter_id"`
	Date       string  `json:"date"`
	TotalUnits float64 `json:"total_units"`
}

// ForecastEvent is published after each successful forecast.
type ForecastEvent struct {
	MeterID             string    `json:"meter_id,omitempty"`
	RequestKey          string    `json:"request_key"`
	PredictionType      string    `json:"prediction_type"`
	NextDayUnits        float64   `json:"next_day_units"`
	Predicted2MonthBill float64   `json:"predicted_2month_bill"`
	AnomalyDetected     bool      `json:"anomaly_detected"`
	Confidence          string    `json:"confidence"`
	DataDays            int       `json:"data_days"`
	CreatedAt           time.Time `json:"created_at"`
}
