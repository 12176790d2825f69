package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
)

// BookingStore keeps bookings in a map
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

var _ ports.BookingRepository = (*BookingStore)(nil)

// NewBookingStore creates an empty store
func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]domain.Booking)}
}

// Create implements ports.BookingRepository
func (s *BookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	s.bookings[booking.ID] = *booking
	return nil
}

// GetByID implements ports.BookingRepository
func (s *BookingStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodeBookingNotFound, fmt.Sprintf("booking %s not found", id))
	}
	return &booking, nil
}

// UpdateStatus implements ports.BookingRepository
func (s *BookingStore) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return domain.NewDomainError(domain.ErrorCodeBookingNotFound, fmt.Sprintf("booking %s not found", id))
	}
	booking.Status = status
	s.bookings[id] = booking
	return nil
}
