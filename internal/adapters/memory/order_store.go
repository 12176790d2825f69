// Package memory holds process-local store implementations used when no
// database is configured, and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
)

// OrderStore keeps orders in a map. Values are cloned on the way in and out.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

var _ ports.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates an empty store
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*domain.Order)}
}

// Get implements ports.OrderStore
func (s *OrderStore) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodeOrderNotFound, fmt.Sprintf("order %s not found", orderID))
	}
	return order.Clone(), nil
}

// Save implements ports.OrderStore
func (s *OrderStore) Save(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order.Clone()
	return nil
}
