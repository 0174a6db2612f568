package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"EnergyForecast/internal/domain/models"
	domrepo "EnergyForecast/internal/domain/repository"
)

var _ domrepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)

// MessagePublisher is the producer surface used here; pkg/kafka.Producer satisfies it.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

// KafkaForecastPublisher emits ForecastEvents keyed by meter id, or by request key for ad-hoc forecasts.
type KafkaForecastPublisher struct {
	producer MessagePublisher
	topic    string
}

func NewKafkaForecastPublisher(p MessagePublisher, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: p, topic: topic}
}

func (p *KafkaForecastPublisher) PublishForecast(ctx context.Context, ev *models.ForecastEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal forecast event: %w", err)
	}
	key := ev.MeterID
	if key == "" {
		key = ev.RequestKey
	}
	return p.producer.Publish(ctx, p.topic, []byte(key), data)
}

func (p *KafkaForecastPublisher) Close() error {
	return p.producer.Close()
}

// NoopForecastPublisher drops events when Kafka is disabled.
type NoopForecastPublisher struct{}

func (NoopForecastPublisher) PublishForecast(context.Context, *models.ForecastEvent) error { return nil }

func (NoopForecastPublisher) Close() error { return nil }
