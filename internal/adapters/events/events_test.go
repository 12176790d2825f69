package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/pkg/resilience"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	failures int
	calls    int
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("leader not available")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent() domain.SettlementEvent {
	return domain.NewSettlementEvent(domain.EventRefundCompleted, "order_1", map[string]any{"refund_id": "rfnd_1"}, time.Now())
}

func TestKafkaPublisher_WritesKeyedMessage(t *testing.T) {
	writer := &fakeWriter{}
	p := newKafkaPublisher(writer, &resilience.FixedBackoff{}, zap.NewNop())
	event := testEvent()

	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "order_1", string(msg.Key))

	var decoded domain.SettlementEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, domain.EventRefundCompleted, decoded.Type)
	assert.Equal(t, "rfnd_1", decoded.Payload["refund_id"])
}

func TestKafkaPublisher_RetriesTransientErrors(t *testing.T) {
	writer := &fakeWriter{failures: 2}
	p := newKafkaPublisher(writer, &resilience.FixedBackoff{Delay: time.Millisecond}, zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	assert.Equal(t, 3, writer.calls)
}

func TestKafkaPublisher_GivesUpAfterAttempts(t *testing.T) {
	writer := &fakeWriter{failures: 10}
	p := newKafkaPublisher(writer, &resilience.FixedBackoff{}, zap.NewNop())

	err := p.Publish(context.Background(), testEvent())

	assert.Error(t, err)
	assert.Equal(t, publishAttempts, writer.calls)
	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	require.NoError(t, p.Publish(context.Background(), testEvent()))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "order_1", logs.All()[0].ContextMap()["order_id"])
	assert.NoError(t, p.Close())
}
