package ports

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/services/idempotency"
)

// SettlementService handles refunds, hold releases and order lookups
type SettlementService interface {
	// Refund reconciles a refund once per idempotency key. An empty key runs fresh.
	Refund(ctx context.Context, idempotencyKey string, intent domain.RefundIntent) (*domain.RefundResult, idempotency.Outcome, error)

	// Release lets the order's first transfer settle to the vendor
	Release(ctx context.Context, orderID string) (domain.Transfer, error)

	// GetOrder returns the full order record
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}
