// Package idempotency replays refund results stored under a client key.
package idempotency

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/pkg/observability"
	"golang.org/x/sync/singleflight"
)

// Outcome says where a result came from
type Outcome string

const (
	OutcomeExecuted Outcome = "executed"
	OutcomeReplayed Outcome = "replayed"
)

// Cache wraps refund execution with key-based replay. Concurrent calls for
// one key share a single execution.
type Cache struct {
	store  ports.IdempotencyStore
	group  singleflight.Group
	logger ports.Logger
}

// NewCache creates a cache over store
func NewCache(store ports.IdempotencyStore, logger ports.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

type flight struct {
	result  *domain.RefundResult
	outcome Outcome
}

// Do returns the result stored under key, or runs fn and stores what it
// returns. Failed runs are not stored, so the key can be retried. An empty
// key always runs fn.
func (c *Cache) Do(ctx context.Context, key string, fn func(ctx context.Context) (*domain.RefundResult, error)) (*domain.RefundResult, Outcome, error) {
	if key == "" {
		observability.RecordIdempotencyLookup("bypass")
		result, err := fn(ctx)
		return result, OutcomeExecuted, err
	}

	cached, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrorCodeInternalError, "idempotency lookup failed", err)
	}
	if ok {
		observability.RecordIdempotencyLookup("hit")
		c.logger.Info("replaying refund for idempotency key",
			ports.String("idempotency_key", key),
			ports.String("refund_id", cached.RefundID))
		return cached, OutcomeReplayed, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have stored the key between our lookup and now.
		cached, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeInternalError, "idempotency lookup failed", err)
		}
		if ok {
			return flight{result: cached, outcome: OutcomeReplayed}, nil
		}

		observability.RecordIdempotencyLookup("miss")
		// The first caller going away must not abandon a refund the others wait on.
		result, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		if err := c.store.Put(context.WithoutCancel(ctx), key, *result); err != nil {
			c.logger.Error("failed to store refund result under idempotency key",
				ports.String("idempotency_key", key),
				ports.String("refund_id", result.RefundID),
				ports.Err(err))
		}
		return flight{result: result, outcome: OutcomeExecuted}, nil
	})
	if err != nil {
		return nil, "", err
	}

	f := v.(flight)
	if shared && f.outcome == OutcomeExecuted {
		observability.RecordIdempotencyLookup("shared")
		f.outcome = OutcomeReplayed
	}
	return f.result, f.outcome, nil
}
