package ports

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
)

// OrderStore persists settlement orders.
//
// Get returns domain.ErrOrderNotFound (by code) for unknown ids. Save writes the whole
// aggregate; implementations treat payments, transfers, reversals and refunds as
// append-only. Callers serialize access per order, so stores need no optimistic locking.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) error
}
