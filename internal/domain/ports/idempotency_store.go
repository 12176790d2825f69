package ports

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
)

// IdempotencyStore maps a client-supplied key to a previously computed refund result
type IdempotencyStore interface {
	// Get returns the stored result and true, or false when the key is unknown or expired
	Get(ctx context.Context, key string) (*domain.RefundResult, bool, error)

	// Put stores result under key. Only successful results are ever stored.
	Put(ctx context.Context, key string, result domain.RefundResult) error
}
