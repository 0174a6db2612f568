package usecase

import (
	"context"
	"errors"
	"fmt"

	"EnergyForecast/internal/domain/models"
	domrepo "EnergyForecast/internal/domain/repository"
	"EnergyForecast/internal/services/features"
	"EnergyForecast/pkg/logger"
)

// Monthly unit thresholds for usage levels.
const (
	lowUsageUnits      = 100
	moderateUsageUnits = 300
)

// Usage levels.
const (
	UsageLow      = "low"
	UsageModerate = "moderate"
	UsageHigh     = "high"
)

// MeterUseCase forecasts from stored meter history.
type MeterUseCase struct {
	store    domrepo.ReadingStore
	forecast *ForecastUseCase
	log      *logger.Logger
}

func NewMeterUseCase(store domrepo.ReadingStore, f *ForecastUseCase, log *logger.Logger) *MeterUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &MeterUseCase{store: store, forecast: f, log: log}
}

func validMeterID(id string) error {
	if id == "" || len(id) > 128 {
		return models.NewInvalidRequestError("meter_id must be 1-128 characters", nil)
	}
	return nil
}

// StoreReadings validates and upserts raw readings. It returns the number stored.
func (m *MeterUseCase) StoreReadings(ctx context.Context, meterID string, raw []features.RawReading) (int, error) {
	if err := validMeterID(meterID); err != nil {
		return 0, err
	}
	records, err := features.ParseHistory(raw)
	if err != nil {
		return 0, err
	}
	if err := m.store.UpsertReadings(ctx, meterID, records); err != nil {
		return 0, fmt.Errorf("store readings: %w", err)
	}
	m.log.Debug("readings stored", logger.String("meter_id", meterID), logger.Int("count", len(records)))
	return len(records), nil
}

// Forecast selects a history window for predictionType and forecasts it.
func (m *MeterUseCase) Forecast(ctx context.Context, meterID, predictionType string) (*models.ForecastResult, error) {
	if err := validMeterID(meterID); err != nil {
		return nil, err
	}
	pt, err := models.ParsePredictionType(predictionType)
	if err != nil {
		return nil, err
	}
	records, err := m.history(ctx, meterID, pt)
	if err != nil {
		return nil, err
	}
	return m.forecast.ForecastRecords(ctx, meterID, pt, records)
}

// Insights combines the weekly and monthly outlooks.
func (m *MeterUseCase) Insights(ctx context.Context, meterID string) (*models.Insights, error) {
	weekly, err := m.Forecast(ctx, meterID, string(models.PredictionWeekly))
	if err != nil {
		return nil, err
	}
	monthly, err := m.Forecast(ctx, meterID, string(models.PredictionMonthly))
	if err != nil {
		return nil, err
	}

	bill := 0.0
	if monthly.PredictedMonthlyBill != nil {
		bill = *monthly.PredictedMonthlyBill
	}
	units := monthly.Forecast.TotalUnits
	return &models.Insights{
		MeterID:              meterID,
		WeeklyUnits:          weekly.Forecast.TotalUnits,
		MonthlyUnits:         units,
		PredictedMonthlyBill: bill,
		AnomalyDetected:      weekly.AnomalyDetected,
		UsageLevel:           UsageLevel(units),
		Confidence:           monthly.Confidence,
		DataDays:             monthly.DataDays,
	}, nil
}

// UsageLevel grades monthly consumption.
func UsageLevel(monthlyUnits float64) string {
	switch {
	case monthlyUnits < lowUsageUnits:
		return UsageLow
	case monthlyUnits < moderateUsageUnits:
		return UsageModerate
	default:
		return UsageHigh
	}
}

// Ping checks the backing store.
func (m *MeterUseCase) Ping(ctx context.Context) error {
	return m.store.Health(ctx)
}

func (m *MeterUseCase) history(ctx context.Context, meterID string, pt models.PredictionType) ([]models.DailyRecord, error) {
	recs, err := m.store.RecentReadings(ctx, meterID, MaxHistory(pt))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	n, err := SelectHistory(pt, len(recs))
	if err != nil {
		var fe *models.ForecastError
		if errors.As(err, &fe) && len(recs) == 0 {
			fe.Message = fmt.Sprintf("No readings found for meter %s", meterID)
		}
		return nil, err
	}
	return recs[len(recs)-n:], nil
}
