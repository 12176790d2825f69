package ports

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
)

// BookingRepository persists reservations
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
}

// PropertyCatalog serves the bookable stays
type PropertyCatalog interface {
	Get(ctx context.Context, id string) (*domain.Property, error)
	List(ctx context.Context) ([]domain.Property, error)
}
