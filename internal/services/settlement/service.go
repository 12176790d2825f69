package settlement

import (
	"context"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/internal/services/idempotency"
	"github.com/oyoplus/booking-service/internal/services/ledger"
	"github.com/oyoplus/booking-service/pkg/resilience"
)

// Service is the refund and release entry point used by the HTTP layer
type Service struct {
	ledger     *ledger.Ledger
	reconciler *Reconciler
	cache      *idempotency.Cache
	publisher  ports.EventPublisher
	logger     ports.Logger
	timeouts   *resilience.TimeoutConfig
	now        func() time.Time
}

// NewService wires the reconciler behind the idempotency cache
func NewService(l *ledger.Ledger, reconciler *Reconciler, cache *idempotency.Cache, publisher ports.EventPublisher, logger ports.Logger) *Service {
	return &Service{
		ledger:     l,
		reconciler: reconciler,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
		timeouts:   resilience.DefaultTimeoutConfig(),
		now:        time.Now,
	}
}

// WithTimeouts replaces the default settlement and publish deadlines
func (s *Service) WithTimeouts(tc *resilience.TimeoutConfig) *Service {
	s.timeouts = tc
	return s
}

// Refund reconciles intent once per idempotency key. A replayed key returns
// the stored result without touching the gateway.
func (s *Service) Refund(ctx context.Context, idempotencyKey string, intent domain.RefundIntent) (*domain.RefundResult, idempotency.Outcome, error) {
	return s.cache.Do(ctx, idempotencyKey, func(ctx context.Context) (*domain.RefundResult, error) {
		ctx, cancel := s.timeouts.SettlementContext(ctx)
		defer cancel()

		result, err := s.reconciler.Refund(ctx, intent)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, domain.EventRefundCompleted, result.OrderID, map[string]any{
			"refund_id":            result.RefundID,
			"kind":                 string(result.Kind),
			"amount":               result.Amount,
			"reversed_transfer_id": result.ReversedTransferID,
		})
		return result, nil
	})
}

// Release lets the order's held transfer settle to the vendor
func (s *Service) Release(ctx context.Context, orderID string) (domain.Transfer, error) {
	if orderID == "" {
		return domain.Transfer{}, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "order_id is required")
	}

	transfer, err := s.ledger.ReleaseHold(ctx, orderID)
	if err != nil {
		return domain.Transfer{}, err
	}
	s.publish(ctx, domain.EventTransferReleased, orderID, map[string]any{
		"transfer_id": transfer.ID,
		"amount":      transfer.Amount,
	})
	return transfer, nil
}

// GetOrder returns the full order record
func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.ledger.Get(ctx, orderID)
}

// publish never fails the caller; the ledger change is already stored.
func (s *Service) publish(ctx context.Context, eventType, orderID string, payload map[string]any) {
	event := domain.NewSettlementEvent(eventType, orderID, payload, s.now())
	ctx, cancel := s.timeouts.PublishContext(context.WithoutCancel(ctx))
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish settlement event",
			ports.String("event_type", eventType),
			ports.String("order_id", orderID),
			ports.String("event_id", event.EventID),
			ports.Err(err))
	}
}
