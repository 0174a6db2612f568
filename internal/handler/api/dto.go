package api

import (
	"EnergyForecast/internal/domain/models"
	"EnergyForecast/internal/services/features"
	"EnergyForecast/pkg/util"
)

// HistoryEntry is one day of submitted consumption.
type HistoryEntry struct {
	Date       string   `json:"date" validate:"required"`
	TotalUnits *float64 `json:"total_units" validate:"required"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	History        []HistoryEntry `json:"history" validate:"required,min=1,dive"`
	PredictionType *string        `json:"prediction_type"`
}

// predictionType resolves a requested prediction_type. Only an absent value
// defaults to daily; an explicit empty string is rejected.
func predictionType(v *string) (string, error) {
	if v == nil {
		return string(models.PredictionDaily), nil
	}
	if *v == "" {
		return "", models.InvalidPredictionTypeError(*v)
	}
	return *v, nil
}

// ReadingsRequest is the body of POST /api/v1/meters/:meter_id/readings.
type ReadingsRequest struct {
	Readings []HistoryEntry `json:"readings" validate:"required,min=1,dive"`
}

// ReadingsResponse acknowledges stored readings.
type ReadingsResponse struct {
	MeterID string `json:"meter_id"`
	Stored  int    `json:"stored"`
}

func toRaw(entries []HistoryEntry) []features.RawReading {
	out := make([]features.RawReading, len(entries))
	for i, e := range entries {
		out[i] = features.RawReading{Date: e.Date}
		if e.TotalUnits != nil {
			out[i].TotalUnits = *e.TotalUnits
		}
	}
	return out
}

type DailyPredictionDTO struct {
	Day            int     `json:"day"`
	Date           string  `json:"date"`
	DayName        string  `json:"day_name"`
	PredictedUnits float64 `json:"predicted_units"`
}

type WeeklySummaryDTO struct {
	Week          int     `json:"week"`
	Days          int     `json:"days"`
	TotalUnits    float64 `json:"total_units"`
	AvgDailyUnits float64 `json:"avg_daily_units"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
}

type WeeklyPredictionDTO struct {
	Predictions      []DailyPredictionDTO `json:"predictions"`
	TotalWeeklyUnits float64              `json:"total_weekly_units"`
	AvgDailyUnits    float64              `json:"avg_daily_units"`
	StartDate        string               `json:"start_date"`
	EndDate          string               `json:"end_date"`
}

type MonthlyPredictionDTO struct {
	DailyPredictions  []DailyPredictionDTO `json:"daily_predictions"`
	WeeklySummaries   []WeeklySummaryDTO   `json:"weekly_summaries"`
	TotalMonthlyUnits float64              `json:"total_monthly_units"`
	AvgDailyUnits     float64              `json:"avg_daily_units"`
	StartDate         string               `json:"start_date"`
	EndDate           string               `json:"end_date"`
}

// ForecastResponse is the 200 body of every forecast endpoint.
type ForecastResponse struct {
	MeterID              string                `json:"meter_id,omitempty"`
	PredictionType       string                `json:"prediction_type"`
	NextDayUnits         float64               `json:"next_day_units"`
	WeeklyPrediction     *WeeklyPredictionDTO  `json:"weekly_prediction,omitempty"`
	MonthlyPrediction    *MonthlyPredictionDTO `json:"monthly_prediction,omitempty"`
	PredictedMonthlyBill *float64              `json:"predicted_monthly_bill,omitempty"`
	Predicted2MonthBill  float64               `json:"predicted_2month_bill"`
	AnomalyDetected      bool                  `json:"anomaly_detected"`
	Confidence           string                `json:"confidence"`
	DataDays             int                   `json:"data_days"`
	Warning              *string               `json:"warning"`
}

// InsightsResponse is the body of GET /api/v1/meters/:meter_id/insights.
type InsightsResponse struct {
	MeterID              string  `json:"meter_id"`
	WeeklyUnits          float64 `json:"weekly_units"`
	MonthlyUnits         float64 `json:"monthly_units"`
	PredictedMonthlyBill float64 `json:"predicted_monthly_bill"`
	AnomalyDetected      bool    `json:"anomaly_detected"`
	UsageLevel           string  `json:"usage_level"`
	Confidence           string  `json:"confidence"`
	DataDays             int     `json:"data_days"`
}

func toForecastResponse(r *models.ForecastResult) *ForecastResponse {
	out := &ForecastResponse{
		MeterID:             r.MeterID,
		PredictionType:      string(r.PredictionType),
		NextDayUnits:        r.NextDayUnits,
		Predicted2MonthBill: r.Predicted2MonthBill,
		AnomalyDetected:     r.AnomalyDetected,
		Confidence:          string(r.Confidence),
		DataDays:            r.DataDays,
		Warning:             r.Warning,
	}
	hf := r.Forecast
	if hf == nil {
		return out
	}
	switch r.PredictionType {
	case models.PredictionWeekly:
		out.WeeklyPrediction = &WeeklyPredictionDTO{
			Predictions:      toDailyDTOs(hf.Predictions),
			TotalWeeklyUnits: hf.TotalUnits,
			AvgDailyUnits:    hf.AvgDailyUnits,
			StartDate:        util.FormatDate(hf.StartDate),
			EndDate:          util.FormatDate(hf.EndDate),
		}
	case models.PredictionMonthly:
		weeks := make([]WeeklySummaryDTO, len(hf.Weeks))
		for i, w := range hf.Weeks {
			weeks[i] = WeeklySummaryDTO{
				Week:          w.Week,
				Days:          w.Days,
				TotalUnits:    w.TotalUnits,
				AvgDailyUnits: w.AvgDailyUnits,
				StartDate:     util.FormatDate(w.StartDate),
				EndDate:       util.FormatDate(w.EndDate),
			}
		}
		out.MonthlyPrediction = &MonthlyPredictionDTO{
			DailyPredictions:  toDailyDTOs(hf.Predictions),
			WeeklySummaries:   weeks,
			TotalMonthlyUnits: hf.TotalUnits,
			AvgDailyUnits:     hf.AvgDailyUnits,
			StartDate:         util.FormatDate(hf.StartDate),
			EndDate:           util.FormatDate(hf.EndDate),
		}
		out.PredictedMonthlyBill = r.PredictedMonthlyBill
	}
	return out
}

func toDailyDTOs(preds []models.DailyPrediction) []DailyPredictionDTO {
	out := make([]DailyPredictionDTO, len(preds))
	for i, p := range preds {
		out[i] = DailyPredictionDTO{
			Day:            p.Day,
			Date:           util.FormatDate(p.Date),
			DayName:        p.DayName,
			PredictedUnits: p.PredictedUnits,
		}
	}
	return out
}

func toInsightsResponse(in *models.Insights) *InsightsResponse {
	return &InsightsResponse{
		MeterID:              in.MeterID,
		WeeklyUnits:          in.WeeklyUnits,
		MonthlyUnits:         in.MonthlyUnits,
		PredictedMonthlyBill: in.PredictedMonthlyBill,
		AnomalyDetected:      in.AnomalyDetected,
		UsageLevel:           in.UsageLevel,
		Confidence:           string(in.Confidence),
		DataDays:             in.DataDays,
	}
}
