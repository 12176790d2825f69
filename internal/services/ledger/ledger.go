// Package ledger owns order state. Every mutation of an order runs under that
// order's lock, so concurrent webhooks and refunds for one order serialize
// while different orders proceed in parallel.
package ledger

import (
	"context"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/pkg/observability"
	"github.com/shopspring/decimal"
)

// Ledger records captures and exposes serialized access to orders
type Ledger struct {
	store          ports.OrderStore
	gateway        ports.SettlementGateway
	platformFeePct decimal.Decimal
	locks          *orderLocks
	logger         ports.Logger
	now            func() time.Time
}

// NewLedger creates a ledger over store. platformFeePct must be within [0,100].
func NewLedger(store ports.OrderStore, gateway ports.SettlementGateway, platformFeePct decimal.Decimal, logger ports.Logger) *Ledger {
	return &Ledger{
		store:          store,
		gateway:        gateway,
		platformFeePct: platformFeePct,
		locks:          newOrderLocks(),
		logger:         logger,
		now:            time.Now,
	}
}

// CaptureResult describes what RecordCapture did
type CaptureResult struct {
	Order     *domain.Order
	Split     domain.FeeSplit
	Transfer  domain.Transfer
	Duplicate bool
}

// Get returns a copy of the order or ORDER_NOT_FOUND
func (l *Ledger) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return l.store.Get(ctx, orderID)
}

// Open stores a new order. An order that already exists is left untouched.
func (l *Ledger) Open(ctx context.Context, order *domain.Order) error {
	release, err := l.locks.acquire(ctx, order.ID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := l.store.Get(ctx, order.ID); err == nil {
		return nil
	} else if !domain.IsDomainError(err, domain.ErrorCodeOrderNotFound) {
		return err
	}
	return l.store.Save(ctx, order)
}

// RecordCapture splits a captured payment, asks the gateway for a held
// transfer of the vendor share, and appends both to the order, creating the
// order if needed. A payment already on the order is a no-op. When the
// transfer cannot be created nothing is written.
func (l *Ledger) RecordCapture(ctx context.Context, orderID string, payment domain.Payment) (*CaptureResult, error) {
	split, err := domain.SplitPayment(payment.Amount, l.platformFeePct)
	if err != nil {
		return nil, err
	}

	release, err := l.locks.acquire(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := l.now()
	order, err := l.store.Get(ctx, orderID)
	switch {
	case domain.IsDomainError(err, domain.ErrorCodeOrderNotFound):
		order = domain.NewOrder(orderID, now)
	case err != nil:
		return nil, err
	}

	if order.HasPayment(payment.ID) {
		l.logger.Info("capture already recorded",
			ports.String("order_id", orderID),
			ports.String("payment_id", payment.ID))
		return &CaptureResult{Order: order, Split: split, Duplicate: true}, nil
	}

	if payment.Currency == "" {
		payment.Currency = order.Currency
	}
	if payment.Status == "" {
		payment.Status = domain.PaymentStatusCaptured
	}
	if payment.CapturedAt.IsZero() {
		payment.CapturedAt = now
	}

	receipt, err := l.gateway.CreateTransfer(ctx, payment.ID, split.HotelShare)
	if err != nil {
		observability.RecordCapture("transfer_failed", payment.Currency, payment.Amount, split.PlatformFee)
		l.logger.Error("transfer creation failed, capture not recorded",
			ports.String("order_id", orderID),
			ports.String("payment_id", payment.ID),
			ports.Int64("hotel_share", split.HotelShare),
			ports.Err(err))
		return nil, err
	}

	transfer := domain.Transfer{
		ID:        receipt.ID,
		PaymentID: payment.ID,
		Amount:    split.HotelShare,
		OnHold:    receipt.OnHold,
		Reversals: []domain.Reversal{},
	}
	order.RecordCapture(payment, transfer, split.PlatformFee, now)

	if err := l.store.Save(ctx, order); err != nil {
		// The transfer exists at the gateway but not here; operators need the id.
		l.logger.Error("failed to store capture after transfer was created",
			ports.String("order_id", orderID),
			ports.String("payment_id", payment.ID),
			ports.String("transfer_id", transfer.ID),
			ports.Err(err))
		return nil, err
	}

	observability.RecordCapture("recorded", payment.Currency, payment.Amount, split.PlatformFee)
	l.logger.Info("capture recorded",
		ports.String("order_id", orderID),
		ports.String("payment_id", payment.ID),
		ports.String("transfer_id", transfer.ID),
		ports.Int64("amount", payment.Amount),
		ports.Int64("platform_fee", split.PlatformFee),
		ports.Int64("hotel_share", split.HotelShare))

	return &CaptureResult{Order: order, Split: split, Transfer: transfer}, nil
}

// MutateBalance adds delta to the order's vendor balance
func (l *Ledger) MutateBalance(ctx context.Context, orderID string, delta int64) (*domain.Order, error) {
	var out *domain.Order
	err := l.WithOrder(ctx, orderID, func(ctx context.Context, s *Session) error {
		if err := s.MutateBalance(ctx, delta); err != nil {
			return err
		}
		out = s.Order()
		return nil
	})
	return out, err
}

// WithOrder runs fn while holding the order's lock. Changes made through the
// session are stored as they are applied, so a later failure inside fn does
// not undo them.
func (l *Ledger) WithOrder(ctx context.Context, orderID string, fn func(ctx context.Context, s *Session) error) error {
	release, err := l.locks.acquire(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	order, err := l.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	return fn(ctx, &Session{ledger: l, order: order})
}

// Session is exclusive access to one order inside WithOrder
type Session struct {
	ledger *Ledger
	order  *domain.Order
}

// Order returns a copy of the current order state
func (s *Session) Order() *domain.Order {
	return s.order.Clone()
}

// Apply mutates the order and stores it. The in-session state only changes
// when the store accepts the write.
func (s *Session) Apply(ctx context.Context, mutate func(o *domain.Order, now time.Time)) error {
	next := s.order.Clone()
	mutate(next, s.ledger.now())
	if err := s.ledger.store.Save(ctx, next); err != nil {
		return err
	}
	s.order = next
	return nil
}

// MutateBalance adds delta to the vendor balance and stores the order
func (s *Session) MutateBalance(ctx context.Context, delta int64) error {
	err := s.Apply(ctx, func(o *domain.Order, now time.Time) {
		o.AdjustVendorBalance(delta, now)
	})
	if err == nil {
		s.ledger.logger.Info("vendor balance adjusted",
			ports.String("order_id", s.order.ID),
			ports.Int64("delta", delta),
			ports.Int64("vendor_balance", s.order.VendorBalance))
	}
	return err
}

// RecordReversal attaches a reversal made against transferID
func (s *Session) RecordReversal(ctx context.Context, transferID string, reversal domain.Reversal) error {
	if !s.order.HasTransfer(transferID) {
		return domain.NewDomainError(domain.ErrorCodeNoTransfer, "transfer not on order").
			WithDetail("transfer_id", transferID)
	}
	return s.Apply(ctx, func(o *domain.Order, now time.Time) {
		if reversal.CreatedAt.IsZero() {
			reversal.CreatedAt = now
		}
		o.RecordReversal(transferID, reversal, now)
	})
}

// RecordRefund appends a successful refund
func (s *Session) RecordRefund(ctx context.Context, refund domain.Refund) error {
	return s.Apply(ctx, func(o *domain.Order, now time.Time) {
		if refund.CreatedAt.IsZero() {
			refund.CreatedAt = now
		}
		o.RecordRefund(refund, now)
	})
}

// RecordReversal stores a reversal outside a larger critical section
func (l *Ledger) RecordReversal(ctx context.Context, orderID, transferID string, reversal domain.Reversal) error {
	return l.WithOrder(ctx, orderID, func(ctx context.Context, s *Session) error {
		return s.RecordReversal(ctx, transferID, reversal)
	})
}

// RecordRefund stores a refund outside a larger critical section
func (l *Ledger) RecordRefund(ctx context.Context, orderID string, refund domain.Refund) error {
	return l.WithOrder(ctx, orderID, func(ctx context.Context, s *Session) error {
		return s.RecordRefund(ctx, refund)
	})
}

// ReleaseHold releases the hold on the order's first transfer. A transfer that
// is already released is returned as is without calling the gateway.
func (l *Ledger) ReleaseHold(ctx context.Context, orderID string) (domain.Transfer, error) {
	var released domain.Transfer
	err := l.WithOrder(ctx, orderID, func(ctx context.Context, s *Session) error {
		transfer, ok := s.order.FirstTransfer()
		if !ok {
			return domain.NewDomainError(domain.ErrorCodeNoTransfer, "order has no transfer to release").
				WithDetail("order_id", orderID)
		}
		if !transfer.OnHold {
			released = transfer
			return nil
		}

		if err := l.gateway.ReleaseHold(ctx, transfer.ID); err != nil {
			l.logger.Error("failed to release transfer hold",
				ports.String("order_id", orderID),
				ports.String("transfer_id", transfer.ID),
				ports.Err(err))
			return err
		}

		if err := s.Apply(ctx, func(o *domain.Order, now time.Time) {
			o.ReleaseTransfer(transfer.ID, now)
		}); err != nil {
			l.logger.Error("hold released at gateway but not stored",
				ports.String("order_id", orderID),
				ports.String("transfer_id", transfer.ID),
				ports.Err(err))
			return err
		}

		transfer.OnHold = false
		released = transfer
		l.logger.Info("transfer hold released",
			ports.String("order_id", orderID),
			ports.String("transfer_id", transfer.ID))
		return nil
	})
	return released, err
}
