package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
)

type idempotencyEntry struct {
	result    domain.RefundResult
	expiresAt time.Time
}

// IdempotencyStore keeps refund results for the life of the process.
// With a positive TTL, entries expire and are swept lazily on lookup.
type IdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]idempotencyEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// NewIdempotencyStore creates a store. ttl <= 0 keeps entries forever.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		entries: make(map[string]idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements ports.IdempotencyStore
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*domain.RefundResult, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		if current, still := s.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	result := entry.result
	return &result, true, nil
}

// Put implements ports.IdempotencyStore
func (s *IdempotencyStore) Put(ctx context.Context, key string, result domain.RefundResult) error {
	entry := idempotencyEntry{result: result}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

// Len returns the number of stored keys, expired or not
func (s *IdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// PurgeExpired drops every expired key and returns how many were removed
func (s *IdempotencyStore) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, entry := range s.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}
