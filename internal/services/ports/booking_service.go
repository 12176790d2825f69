package ports

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
)

// BookingService reserves stays
type BookingService interface {
	Create(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error)
	Get(ctx context.Context, id string) (*domain.Booking, error)
	Properties(ctx context.Context) ([]domain.Property, error)
}
