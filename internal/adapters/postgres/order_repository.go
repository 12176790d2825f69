package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
)

// OrderRepository stores order aggregates across the order tables. Child rows
// are append-only; only the order totals and transfer hold/reversal state change.
type OrderRepository struct {
	db *DBExecutor
}

var _ ports.OrderStore = (*OrderRepository)(nil)

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DBExecutor) *OrderRepository {
	return &OrderRepository{db: db}
}

// Get loads the order with its payments, transfers, reversals and refunds
func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = loadOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Save writes the whole aggregate in one transaction
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return saveOrder(ctx, tx, order)
	})
}

func loadOrder(ctx context.Context, q ports.DBTX, orderID string) (*domain.Order, error) {
	var (
		order     domain.Order
		bookingID pgtype.Text
	)
	err := q.QueryRow(ctx, `
		SELECT id, booking_id, currency, amount_due, amount_paid, platform_fee, vendor_balance, created_at, updated_at
		FROM orders WHERE id = $1`, orderID).
		Scan(&order.ID, &bookingID, &order.Currency, &order.AmountDue, &order.AmountPaid,
			&order.PlatformFee, &order.VendorBalance, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewDomainError(domain.ErrorCodeOrderNotFound, fmt.Sprintf("order %s not found", orderID))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load order", err)
	}
	order.BookingID = bookingID.String

	if order.Payments, err = loadPayments(ctx, q, orderID); err != nil {
		return nil, err
	}
	if order.Transfers, err = loadTransfers(ctx, q, orderID); err != nil {
		return nil, err
	}
	if order.Refunds, err = loadRefunds(ctx, q, orderID); err != nil {
		return nil, err
	}
	return &order, nil
}

func loadPayments(ctx context.Context, q ports.DBTX, orderID string) ([]domain.Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, amount, currency, status, captured_at
		FROM order_payments WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load payments", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		var status string
		if err := rows.Scan(&p.ID, &p.Amount, &p.Currency, &status, &p.CapturedAt); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan payment", err)
		}
		p.Status = domain.PaymentStatus(status)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func loadTransfers(ctx context.Context, q ports.DBTX, orderID string) ([]domain.Transfer, error) {
	rows, err := q.Query(ctx, `
		SELECT id, payment_id, amount, on_hold, reversed_amount
		FROM order_transfers WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load transfers", err)
	}

	transfers := []domain.Transfer{}
	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(&t.ID, &t.PaymentID, &t.Amount, &t.OnHold, &t.ReversedAmount); err != nil {
			rows.Close()
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan transfer", err)
		}
		t.Reversals = []domain.Reversal{}
		transfers = append(transfers, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range transfers {
		reversals, err := loadReversals(ctx, q, transfers[i].ID)
		if err != nil {
			return nil, err
		}
		transfers[i].Reversals = reversals
	}
	return transfers, nil
}

func loadReversals(ctx context.Context, q ports.DBTX, transferID string) ([]domain.Reversal, error) {
	rows, err := q.Query(ctx, `
		SELECT id, amount, created_at
		FROM transfer_reversals WHERE transfer_id = $1 ORDER BY seq`, transferID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load reversals", err)
	}
	defer rows.Close()

	reversals := []domain.Reversal{}
	for rows.Next() {
		var rv domain.Reversal
		if err := rows.Scan(&rv.ID, &rv.Amount, &rv.CreatedAt); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan reversal", err)
		}
		reversals = append(reversals, rv)
	}
	return reversals, rows.Err()
}

func loadRefunds(ctx context.Context, q ports.DBTX, orderID string) ([]domain.Refund, error) {
	rows, err := q.Query(ctx, `
		SELECT id, payment_id, amount, reason, reverse_all, reversal_id, created_at
		FROM order_refunds WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load refunds", err)
	}
	defer rows.Close()

	refunds := []domain.Refund{}
	for rows.Next() {
		var (
			rf         domain.Refund
			reason     pgtype.Text
			reversalID pgtype.Text
		)
		if err := rows.Scan(&rf.ID, &rf.PaymentID, &rf.Amount, &reason, &rf.ReverseAll, &reversalID, &rf.CreatedAt); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan refund", err)
		}
		rf.Reason = reason.String
		rf.ReversalID = reversalID.String
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}

func saveOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO orders (id, booking_id, currency, amount_due, amount_paid, platform_fee, vendor_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			booking_id = EXCLUDED.booking_id,
			currency = EXCLUDED.currency,
			amount_due = EXCLUDED.amount_due,
			amount_paid = EXCLUDED.amount_paid,
			platform_fee = EXCLUDED.platform_fee,
			vendor_balance = EXCLUDED.vendor_balance,
			updated_at = EXCLUDED.updated_at`,
		order.ID, nullText(order.BookingID), order.Currency, order.AmountDue, order.AmountPaid,
		order.PlatformFee, order.VendorBalance, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "save order", err)
	}

	batch := &pgx.Batch{}
	for i, p := range order.Payments {
		batch.Queue(`
			INSERT INTO order_payments (id, order_id, seq, amount, currency, status, captured_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, order.ID, i, p.Amount, p.Currency, string(p.Status), p.CapturedAt)
	}
	for i, t := range order.Transfers {
		batch.Queue(`
			INSERT INTO order_transfers (id, order_id, payment_id, seq, amount, on_hold, reversed_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET on_hold = EXCLUDED.on_hold, reversed_amount = EXCLUDED.reversed_amount`,
			t.ID, order.ID, t.PaymentID, i, t.Amount, t.OnHold, t.ReversedAmount)
		for j, rv := range t.Reversals {
			batch.Queue(`
				INSERT INTO transfer_reversals (id, transfer_id, seq, amount, created_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO NOTHING`,
				rv.ID, t.ID, j, rv.Amount, rv.CreatedAt)
		}
	}
	for i, rf := range order.Refunds {
		batch.Queue(`
			INSERT INTO order_refunds (id, order_id, seq, payment_id, amount, reason, reverse_all, reversal_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			rf.ID, order.ID, i, rf.PaymentID, rf.Amount, nullText(rf.Reason), rf.ReverseAll, nullText(rf.ReversalID), rf.CreatedAt)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "save order children", err)
	}
	return nil
}
