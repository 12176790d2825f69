package events

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/pkg/observability"
	"go.uber.org/zap"
)

// LogPublisher writes events to the structured log
type LogPublisher struct {
	logger *zap.Logger
}

var _ ports.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a log-only publisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements ports.EventPublisher
func (p *LogPublisher) Publish(ctx context.Context, event domain.SettlementEvent) error {
	p.logger.Info("Settlement event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.Type),
		zap.String("order_id", event.OrderID),
		zap.Any("payload", event.Payload),
	)
	observability.RecordEventPublished(event.Type, "logged")
	return nil
}

// Close implements ports.EventPublisher
func (p *LogPublisher) Close() error { return nil }
