package repository

import (
	"context"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
)

// Producer is the subset of pkg/kafka.Producer used for prediction events.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPredictionPublisher emits prediction events keyed by ticker.
type KafkaPredictionPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPredictionPublisher(p Producer, topic string) *KafkaPredictionPublisher {
	return &KafkaPredictionPublisher{producer: p, topic: topic}
}

func (p *KafkaPredictionPublisher) Publish(ctx context.Context, ev *models.PredictionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Ticker), ev)
}

func (p *KafkaPredictionPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.PredictionEvent) error { return nil }
func (NoopPublisher) Close() error                                         { return nil }

var (
	_ domrepo.PredictionPublisher = (*KafkaPredictionPublisher)(nil)
	_ domrepo.PredictionPublisher = NoopPublisher{}
)
