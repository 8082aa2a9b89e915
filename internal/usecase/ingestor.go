package usecase

import (
	"context"
	"fmt"

	"NotifyInvest/internal/domain/models"
	"NotifyInvest/pkg/kafka"
)

// DirectIngestor appends and dispatches inline. Used when no broker is
// configured: the HTTP ingest endpoint drives the dispatcher directly.
type DirectIngestor struct {
	dispatcher *Dispatcher
}

func NewDirectIngestor(d *Dispatcher) *DirectIngestor {
	return &DirectIngestor{dispatcher: d}
}

func (i *DirectIngestor) Ingest(ctx context.Context, s *models.Signal) error {
	return i.dispatcher.Ingest(ctx, s)
}

// KafkaIngestor publishes signals to the ingest topic. The consumer side
// (SignalHandler) picks them up, so producers and the dispatcher can scale
// independently and signals survive a dispatcher restart.
type KafkaIngestor struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaIngestor(producer *kafka.Producer, topic string) *KafkaIngestor {
	return &KafkaIngestor{producer: producer, topic: topic}
}

func (i *KafkaIngestor) Ingest(ctx context.Context, s *models.Signal) error {
	// Key by title so replays of the same headline land on one partition.
	if err := i.producer.Publish(ctx, i.topic, []byte(s.Title), s); err != nil {
		return fmt.Errorf("publish signal: %w", err)
	}
	return nil
}
