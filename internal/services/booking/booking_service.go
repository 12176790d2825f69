// Package booking reserves stays and opens the payment order each booking is
// paid through.
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/internal/services/ledger"
	"github.com/oyoplus/booking-service/pkg/observability"
)

// Service implements booking creation and lookup
type Service struct {
	catalog   ports.PropertyCatalog
	bookings  ports.BookingRepository
	ledger    *ledger.Ledger
	publisher ports.EventPublisher
	logger    ports.Logger
	now       func() time.Time
	newID     func() string
}

// NewService creates a new booking service
func NewService(
	catalog ports.PropertyCatalog,
	bookings ports.BookingRepository,
	l *ledger.Ledger,
	publisher ports.EventPublisher,
	logger ports.Logger,
) *Service {
	return &Service{
		catalog:   catalog,
		bookings:  bookings,
		ledger:    l,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create validates req against the catalog, stores the booking awaiting
// payment and opens an order for its total. A booking whose order cannot be
// opened is cancelled.
func (s *Service) Create(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	req.Normalize()
	checkIn, err := req.Validate()
	if err != nil {
		observability.RecordBooking("invalid_input")
		return nil, err
	}

	property, err := s.catalog.Get(ctx, req.PropertyID)
	if err != nil {
		observability.RecordBooking("property_not_found")
		return nil, err
	}

	now := s.now()
	booking, err := domain.NewBooking(s.newID(), s.newID(), req, *property, checkIn, now)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrorCodeGuestsExceed) {
			observability.RecordBooking("invalid_input")
			return nil, err
		}
		observability.RecordBooking("guests_exceed")
		s.logger.Info("booking rejected",
			ports.String("property_id", property.ID),
			ports.Int("guests", req.Guests),
			ports.Int("max_guests", property.Capacity()))
		return nil, err
	}

	// An order never exists without its booking.
	if err := s.bookings.Create(ctx, booking); err != nil {
		observability.RecordBooking("reserve_failed")
		s.logger.Error("failed to store booking",
			ports.String("booking_id", booking.ID),
			ports.String("order_id", booking.OrderID),
			ports.Err(err))
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "failed to reserve booking", err)
	}

	order := domain.NewOrder(booking.OrderID, now)
	order.BookingID = booking.ID
	order.Currency = booking.Totals.Currency
	order.AmountDue = booking.Totals.AmountDueMinor()
	if err := s.ledger.Open(ctx, order); err != nil {
		observability.RecordBooking("reserve_failed")
		s.logger.Error("failed to open payment order",
			ports.String("booking_id", booking.ID),
			ports.String("order_id", order.ID),
			ports.Err(err))
		if cancelErr := s.bookings.UpdateStatus(context.WithoutCancel(ctx), booking.ID, domain.BookingStatusCancelled); cancelErr != nil {
			s.logger.Error("failed to cancel booking without order",
				ports.String("booking_id", booking.ID),
				ports.Err(cancelErr))
		}
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "failed to reserve booking", err)
	}

	observability.RecordBooking("created")
	s.logger.Info("booking created",
		ports.String("booking_id", booking.ID),
		ports.String("order_id", booking.OrderID),
		ports.String("property_id", booking.PropertyID),
		ports.Int64("amount_due", order.AmountDue))

	event := domain.NewSettlementEvent(domain.EventBookingCreated, booking.OrderID, map[string]any{
		"booking_id":  booking.ID,
		"property_id": booking.PropertyID,
		"amount_due":  order.AmountDue,
		"currency":    order.Currency,
	}, now)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish booking event",
			ports.String("booking_id", booking.ID),
			ports.Err(err))
	}

	return booking, nil
}

// Get returns a booking by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// Confirm marks the booking paid. Unknown ids are reported to the caller.
func (s *Service) Confirm(ctx context.Context, id string) error {
	if err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusConfirmed); err != nil {
		return err
	}
	observability.RecordBooking("confirmed")
	return nil
}

// Properties lists the bookable stays
func (s *Service) Properties(ctx context.Context) ([]domain.Property, error) {
	return s.catalog.List(ctx)
}
