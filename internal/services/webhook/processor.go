package webhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/internal/services/ledger"
)

// BookingConfirmer marks a booking paid once its capture is recorded
type BookingConfirmer interface {
	Confirm(ctx context.Context, bookingID string) error
}

// Result describes what a delivered webhook did
type Result struct {
	Event     string
	OrderID   string
	PaymentID string
	Ignored   bool
	Duplicate bool
}

// Processor verifies webhook deliveries and records captures in the ledger
type Processor struct {
	verifier  *Verifier
	ledger    *ledger.Ledger
	bookings  BookingConfirmer
	publisher ports.EventPublisher
	logger    ports.Logger
	now       func() time.Time
}

// NewProcessor creates a webhook processor. bookings may be nil.
func NewProcessor(verifier *Verifier, l *ledger.Ledger, bookings BookingConfirmer, publisher ports.EventPublisher, logger ports.Logger) *Processor {
	return &Processor{
		verifier:  verifier,
		ledger:    l,
		bookings:  bookings,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Process authenticates body and applies it. Nothing in body is read before
// the signature checks out.
func (p *Processor) Process(ctx context.Context, body []byte, signature string) (*Result, error) {
	if !p.verifier.Verify(body, signature) {
		p.logger.Warn("webhook signature rejected", ports.Int("body_bytes", len(body)))
		return nil, domain.ErrInvalidSignature
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeValidationFailed, "webhook body is not valid JSON", err)
	}

	if env.Event != EventPaymentCaptured {
		p.logger.Debug("ignoring webhook event", ports.String("event", env.Event))
		return &Result{Event: env.Event, Ignored: true}, nil
	}

	entity := env.Payload.Payment.Entity
	if entity.ID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payment id is required")
	}
	if entity.Amount <= 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "payment amount must be positive")
	}

	orderID := entity.orderID()
	payment := domain.Payment{
		ID:         entity.ID,
		Amount:     entity.Amount,
		Currency:   strings.ToUpper(entity.Currency),
		Status:     domain.PaymentStatusCaptured,
		CapturedAt: entity.capturedAt(),
	}

	capture, err := p.ledger.RecordCapture(ctx, orderID, payment)
	if err != nil {
		return nil, err
	}

	result := &Result{Event: env.Event, OrderID: orderID, PaymentID: entity.ID, Duplicate: capture.Duplicate}
	if capture.Duplicate {
		return result, nil
	}

	if p.bookings != nil && capture.Order.BookingID != "" {
		if err := p.bookings.Confirm(ctx, capture.Order.BookingID); err != nil {
			p.logger.Error("capture recorded but booking not confirmed",
				ports.String("order_id", orderID),
				ports.String("booking_id", capture.Order.BookingID),
				ports.Err(err))
		}
	}

	event := domain.NewSettlementEvent(domain.EventCaptureRecorded, orderID, map[string]any{
		"payment_id":   entity.ID,
		"amount":       entity.Amount,
		"platform_fee": capture.Split.PlatformFee,
		"hotel_share":  capture.Split.HotelShare,
		"transfer_id":  capture.Transfer.ID,
	}, p.now())
	if err := p.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		p.logger.Warn("failed to publish capture event",
			ports.String("order_id", orderID),
			ports.Err(err))
	}

	return result, nil
}
