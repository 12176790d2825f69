// Package events publishes settlement events to Kafka, or to the log when no
// brokers are configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/pkg/observability"
	"github.com/oyoplus/booking-service/pkg/resilience"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishAttempts = 3

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order id so a consumer sees each
// order's events in order.
type KafkaPublisher struct {
	writer  messageWriter
	backoff resilience.BackoffStrategy
	logger  *zap.Logger
}

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info("Kafka event publisher configured",
		zap.String("brokers", strings.Join(brokers, ",")),
		zap.String("topic", topic),
	)
	return newKafkaPublisher(writer, resilience.DefaultExponentialBackoff(), logger)
}

func newKafkaPublisher(writer messageWriter, backoff resilience.BackoffStrategy, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, backoff: backoff, logger: logger}
}

// Publish implements ports.EventPublisher. Transient broker errors are
// retried; events are notifications, so a repeat delivery is harmless.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.SettlementEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		observability.RecordEventPublished(event.Type, "error")
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	err = resilience.Retry(ctx, p.backoff, publishAttempts, func(ctx context.Context) error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		observability.RecordEventPublished(event.Type, "error")
		p.logger.Error("Failed to publish settlement event",
			zap.String("event_type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	observability.RecordEventPublished(event.Type, "success")
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
