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

// BookingRepository implements ports.BookingRepository on the bookings table
type BookingRepository struct {
	db *DBExecutor
}

var _ ports.BookingRepository = (*BookingRepository)(nil)

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *DBExecutor) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	checkIn, err := dateFromLayout(b.CheckIn)
	if err != nil {
		return fmt.Errorf("invalid check-in date: %w", err)
	}
	checkOut, err := dateFromLayout(b.CheckOut)
	if err != nil {
		return fmt.Errorf("invalid check-out date: %w", err)
	}

	_, err = r.db.DB().Exec(ctx, `
		INSERT INTO bookings (
			id, order_id, property_id, property_name, city, check_in, check_out, nights, guests,
			guest_name, guest_email, guest_phone, requests,
			nightly_rate, subtotal, tax, fees, total, currency, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $21)`,
		b.ID, b.OrderID, b.PropertyID, b.PropertyName, b.City, checkIn, checkOut, b.Nights, b.Guests,
		b.Guest.Name, b.Guest.Email, nullText(b.Guest.Phone), nullText(b.Requests),
		b.Totals.NightlyRate, b.Totals.Subtotal, b.Totals.Tax, b.Totals.Fees, b.Totals.Total, b.Totals.Currency,
		string(b.Status), b.CreatedAt)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create booking", err)
	}
	return nil
}

// GetByID loads a booking
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var (
		b                 domain.Booking
		checkIn, checkOut pgtype.Date
		phone, requests   pgtype.Text
		status            string
	)
	err := r.db.DB().QueryRow(ctx, `
		SELECT id, order_id, property_id, property_name, city, check_in, check_out, nights, guests,
			guest_name, guest_email, guest_phone, requests,
			nightly_rate, subtotal, tax, fees, total, currency, status, created_at
		FROM bookings WHERE id = $1`, id).
		Scan(&b.ID, &b.OrderID, &b.PropertyID, &b.PropertyName, &b.City, &checkIn, &checkOut, &b.Nights, &b.Guests,
			&b.Guest.Name, &b.Guest.Email, &phone, &requests,
			&b.Totals.NightlyRate, &b.Totals.Subtotal, &b.Totals.Tax, &b.Totals.Fees, &b.Totals.Total, &b.Totals.Currency,
			&status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewDomainError(domain.ErrorCodeBookingNotFound, fmt.Sprintf("booking %s not found", id))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get booking", err)
	}

	b.CheckIn = dateToLayout(checkIn)
	b.CheckOut = dateToLayout(checkOut)
	b.Guest.Phone = phone.String
	b.Requests = requests.String
	b.Totals.Nights = b.Nights
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

// UpdateStatus moves a booking to a new status
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	tag, err := r.db.DB().Exec(ctx, `UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeBookingNotFound, fmt.Sprintf("booking %s not found", id))
	}
	return nil
}
