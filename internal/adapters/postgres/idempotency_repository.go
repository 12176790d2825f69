package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
)

// IdempotencyRepository persists refund results by idempotency key so a
// restart does not replay a refund. ttl <= 0 keeps keys forever.
type IdempotencyRepository struct {
	db  *DBExecutor
	ttl time.Duration
}

var _ ports.IdempotencyStore = (*IdempotencyRepository)(nil)

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *DBExecutor, ttl time.Duration) *IdempotencyRepository {
	return &IdempotencyRepository{db: db, ttl: ttl}
}

// Get returns the stored result for key unless it has expired
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*domain.RefundResult, bool, error) {
	var raw []byte
	err := r.db.DB().QueryRow(ctx, `
		SELECT result FROM refund_idempotency_keys
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get idempotency key: %w", err)
	}

	var result domain.RefundResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode idempotency result: %w", err)
	}
	return &result, true, nil
}

// Put stores result under key. An existing live key keeps its first result.
func (r *IdempotencyRepository) Put(ctx context.Context, key string, result domain.RefundResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode idempotency result: %w", err)
	}

	var expiresAt time.Time
	if r.ttl > 0 {
		expiresAt = time.Now().Add(r.ttl)
	}

	_, err = r.db.DB().Exec(ctx, `
		INSERT INTO refund_idempotency_keys (key, result, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET result = EXCLUDED.result, created_at = now(), expires_at = EXCLUDED.expires_at
		WHERE refund_idempotency_keys.expires_at IS NOT NULL AND refund_idempotency_keys.expires_at <= now()`,
		key, raw, nullTime(expiresAt))
	if err != nil {
		return fmt.Errorf("put idempotency key: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired keys and returns how many were removed
func (r *IdempotencyRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.DB().Exec(ctx, `DELETE FROM refund_idempotency_keys WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
