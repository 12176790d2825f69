package logging

import (
	"errors"
	"testing"

	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerAdapter_ForwardsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := NewZapLogger(zap.New(core))

	adapter.Info("capture recorded", ports.String("order_id", "order_1"), ports.Int64("amount", 10000))
	adapter.Error("refund failed", ports.Err(errors.New("boom")))
	adapter.Debug("debug")
	adapter.Warn("warn")

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, "capture recorded", entries[0].Message)
	assert.Equal(t, "order_1", entries[0].ContextMap()["order_id"])
	assert.Equal(t, int64(10000), entries[0].ContextMap()["amount"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNew(t *testing.T) {
	logger, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	logger, err = New("development", "debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = New("development", "loud")
	assert.Error(t, err)
}
