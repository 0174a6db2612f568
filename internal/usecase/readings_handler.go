package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"EnergyForecast/internal/domain/models"
	domrepo "EnergyForecast/internal/domain/repository"
	"EnergyForecast/internal/services/features"
	pkgkafka "EnergyForecast/pkg/kafka"
)

// ReadingsHandler consumes meter readings from Kafka and writes them to the store.
type ReadingsHandler struct {
	topic   string
	meters  *MeterUseCase
	metrics domrepo.Metrics
}

func NewReadingsHandler(topic string, meters *MeterUseCase, metrics domrepo.Metrics) *ReadingsHandler {
	return &ReadingsHandler{topic: topic, meters: meters, metrics: metrics}
}

func (h *ReadingsHandler) Topic() string { return h.topic }

// incoming message schema: {meter_id, date, total_units}
func (h *ReadingsHandler) Handle(ctx context.Context, b []byte) error {
	var m models.ReadingMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.recordError("consumer_unmarshal")
		return fmt.Errorf("decode reading: %w", err)
	}
	_, err := h.meters.StoreReadings(ctx, m.MeterID, []features.RawReading{{Date: m.Date, TotalUnits: m.TotalUnits}})
	if err != nil {
		h.recordError("consumer_store")
		return err
	}
	return nil
}

func (h *ReadingsHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*ReadingsHandler)(nil)
