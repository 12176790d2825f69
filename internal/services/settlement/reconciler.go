// Package settlement reconciles refunds against the vendor transfers made at
// capture time.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/internal/services/ledger"
	"github.com/oyoplus/booking-service/pkg/observability"
)

// Reconciler decides how a refund is split between a reverse-all refund and
// a reversal followed by a plain refund.
type Reconciler struct {
	ledger  *ledger.Ledger
	gateway ports.SettlementGateway
	logger  ports.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(l *ledger.Ledger, gateway ports.SettlementGateway, logger ports.Logger) *Reconciler {
	return &Reconciler{ledger: l, gateway: gateway, logger: logger}
}

// Refund returns money to the customer for intent.OrderID. Amounts above
// what is left unrefunded on the first payment are rejected before any
// gateway call.
//
// A refund of the whole first payment on an order with exactly one transfer
// asks the gateway to reverse that transfer itself. Anything else reverses
// the amount from the first transfer and then refunds; when the reversal
// fails the amount is charged to the vendor balance and the refund still goes
// ahead. A failed refund call is returned as REFUND_FAILED and leaves only
// that balance adjustment behind.
func (r *Reconciler) Refund(ctx context.Context, intent domain.RefundIntent) (*domain.RefundResult, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var result *domain.RefundResult
	kind := "unknown"

	err := r.ledger.WithOrder(ctx, intent.OrderID, func(ctx context.Context, s *ledger.Session) error {
		order := s.Order()
		payment, ok := order.FirstPayment()
		if !ok {
			return domain.NewDomainError(domain.ErrorCodeNoPaymentRecorded, "order has no captured payment").
				WithDetail("order_id", order.ID)
		}
		if refundable := payment.Amount - order.RefundedFor(payment.ID); intent.Amount > refundable {
			return domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid,
				fmt.Sprintf("refund amount %d exceeds refundable %d", intent.Amount, refundable)).
				WithDetail("order_id", order.ID).
				WithDetail("refundable", refundable)
		}

		var err error
		if intent.Amount == payment.Amount && len(order.Transfers) == 1 {
			kind = string(domain.RefundKindFull)
			result, err = r.fullRefund(ctx, s, payment, intent)
		} else {
			kind = string(domain.RefundKindPartial)
			result, err = r.partialRefund(ctx, s, order, payment, intent)
		}
		return err
	})

	status := "success"
	if err != nil {
		status = string(domain.GetErrorCode(err))
	}
	observability.RecordRefund(kind, status, time.Since(start).Seconds())
	return result, err
}

func (r *Reconciler) fullRefund(ctx context.Context, s *ledger.Session, payment domain.Payment, intent domain.RefundIntent) (*domain.RefundResult, error) {
	receipt, err := r.gateway.CreateRefund(ctx, payment.ID, intent.Amount, intent.Reason, true)
	if err != nil {
		r.logger.Error("full refund failed",
			ports.String("order_id", intent.OrderID),
			ports.String("payment_id", payment.ID),
			ports.Int64("amount", intent.Amount),
			ports.Err(err))
		return nil, refundFailed(err)
	}

	r.storeRefund(ctx, s, domain.Refund{
		ID:         receipt.ID,
		PaymentID:  payment.ID,
		Amount:     intent.Amount,
		Reason:     intent.Reason,
		ReverseAll: true,
	})

	r.logger.Info("full refund issued",
		ports.String("order_id", intent.OrderID),
		ports.String("refund_id", receipt.ID),
		ports.Int64("amount", intent.Amount))

	return &domain.RefundResult{
		Kind:     domain.RefundKindFull,
		OrderID:  intent.OrderID,
		RefundID: receipt.ID,
		Amount:   intent.Amount,
	}, nil
}

func (r *Reconciler) partialRefund(ctx context.Context, s *ledger.Session, order *domain.Order, payment domain.Payment, intent domain.RefundIntent) (*domain.RefundResult, error) {
	transferID, reversalID := r.reverse(ctx, order, intent)
	if reversalID == "" {
		observability.RecordReversalFallback()
		if err := s.MutateBalance(ctx, -intent.Amount); err != nil {
			// Refunding now would leave the vendor's debt untracked.
			r.logger.Error("failed to record vendor deficit, refund not attempted",
				ports.String("order_id", intent.OrderID),
				ports.Int64("amount", intent.Amount),
				ports.Err(err))
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to record vendor balance", err)
		}
	}

	receipt, err := r.gateway.CreateRefund(ctx, payment.ID, intent.Amount, intent.Reason, false)
	if err != nil {
		failure := refundFailed(err)
		fields := []ports.Field{
			ports.String("order_id", intent.OrderID),
			ports.String("payment_id", payment.ID),
			ports.Int64("amount", intent.Amount),
			ports.Err(err),
		}
		if reversalID != "" {
			fields = append(fields, ports.String("reversal_id", reversalID))
			failure = failure.WithDetail("reversal_id", reversalID)
		}
		// The reversal, if any, is not stored; operators reconcile it from this log.
		r.logger.Error("partial refund failed", fields...)
		return nil, failure
	}

	if reversalID != "" {
		if err := s.RecordReversal(ctx, transferID, domain.Reversal{ID: reversalID, Amount: intent.Amount}); err != nil {
			r.logger.Error("reversal made at gateway but not stored",
				ports.String("order_id", intent.OrderID),
				ports.String("transfer_id", transferID),
				ports.String("reversal_id", reversalID),
				ports.Err(err))
		}
	}
	r.storeRefund(ctx, s, domain.Refund{
		ID:         receipt.ID,
		PaymentID:  payment.ID,
		Amount:     intent.Amount,
		Reason:     intent.Reason,
		ReversalID: reversalID,
	})

	r.logger.Info("partial refund issued",
		ports.String("order_id", intent.OrderID),
		ports.String("refund_id", receipt.ID),
		ports.String("reversal_id", reversalID),
		ports.Int64("amount", intent.Amount))

	return &domain.RefundResult{
		Kind:               domain.RefundKindPartial,
		OrderID:            intent.OrderID,
		RefundID:           receipt.ID,
		ReversedTransferID: reversalID,
		Amount:             intent.Amount,
	}, nil
}

// reverse pulls intent.Amount back from the first transfer. It returns the
// transfer and reversal ids, or empty ids when there was nothing to reverse
// or the gateway refused. The reversal is only stored once the refund it
// belongs to has been issued.
func (r *Reconciler) reverse(ctx context.Context, order *domain.Order, intent domain.RefundIntent) (transferID, reversalID string) {
	transfer, ok := order.FirstTransfer()
	if !ok {
		r.logger.Warn("order has no transfer to reverse, charging vendor balance",
			ports.String("order_id", intent.OrderID))
		return "", ""
	}

	receipt, err := r.gateway.ReverseTransfer(ctx, transfer.ID, intent.Amount)
	if err != nil {
		r.logger.Warn("transfer reversal failed, charging vendor balance",
			ports.String("order_id", intent.OrderID),
			ports.String("transfer_id", transfer.ID),
			ports.Int64("amount", intent.Amount),
			ports.Err(err))
		return "", ""
	}
	return transfer.ID, receipt.ID
}

// storeRefund records a refund the gateway already issued. The customer has
// the money, so a store failure is logged rather than reported.
func (r *Reconciler) storeRefund(ctx context.Context, s *ledger.Session, refund domain.Refund) {
	if err := s.RecordRefund(ctx, refund); err != nil {
		r.logger.Error("refund issued at gateway but not stored",
			ports.String("order_id", s.Order().ID),
			ports.String("refund_id", refund.ID),
			ports.Int64("amount", refund.Amount),
			ports.Err(err))
	}
}

func refundFailed(err error) *domain.DomainError {
	failure := domain.WrapError(domain.ErrorCodeRefundFailed, "refund could not be issued", err)
	var gatewayErr *domain.DomainError
	if errors.As(err, &gatewayErr) {
		if reason := gatewayErr.ReasonCode(); reason != "" {
			failure = failure.WithDetail(domain.DetailReasonCode, reason)
		}
	}
	return failure
}
