package repository

import (
	"context"

	"EnergyForecast/internal/domain/models"
)

// ReadingStore persists daily meter readings.
type ReadingStore interface {
	Init(ctx context.Context) error // ensure tables
	UpsertReadings(ctx context.Context, meterID string, records []models.DailyRecord) error
	// RecentReadings returns up to limit most recent records in ascending date order.
	RecentReadings(ctx context.Context, meterID string, limit int) ([]models.DailyRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ForecastPublisher emits forecast events downstream.
type ForecastPublisher interface {
	PublishForecast(ctx context.Context, ev *models.ForecastEvent) error
	Close() error
}

// ForecastCache stores serialized forecast responses.
type ForecastCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type Metrics interface {
	RecordForecast(predictionType, status string, seconds float64)
	RecordPredictorCall(model, status string)
	RecordAnomaly()
	RecordCacheHit(layer string)
	RecordError(kind string)
}
