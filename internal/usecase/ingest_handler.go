package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"NotifyInvest/internal/domain/models"
	"NotifyInvest/pkg/logger"
)

// msTimestampFloor marks values that are clearly milliseconds, not
// seconds. Anything above it gets converted so feeds that publish
// millisecond epochs still land with second precision in the ledger.
const msTimestampFloor = int64(1e12)

// SignalHandler consumes signals from the ingest topic and hands them to
// the dispatcher. It implements kafka.MessageHandler.
type SignalHandler struct {
	topic      string
	dispatcher *Dispatcher
	log        *logger.Logger
}

func NewSignalHandler(topic string, dispatcher *Dispatcher, log *logger.Logger) *SignalHandler {
	return &SignalHandler{topic: topic, dispatcher: dispatcher, log: log}
}

func (h *SignalHandler) Topic() string { return h.topic }

func (h *SignalHandler) Handle(ctx context.Context, data []byte) error {
	var s models.Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode signal: %w", err)
	}
	if s.Timestamp > msTimestampFloor {
		s.Timestamp /= 1000
	}

	if err := h.dispatcher.Ingest(ctx, &s); err != nil {
		h.log.Error("ingest from topic", logger.String("topic", h.topic), logger.Error(err))
		return err
	}
	return nil
}
