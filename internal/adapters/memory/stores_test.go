package memory

import (
	"context"
	"testing"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStore_GetUnknownIsOrderNotFound(t *testing.T) {
	store := NewOrderStore()

	_, err := store.Get(context.Background(), "order_missing")

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderNotFound))
}

func TestOrderStore_SaveIsolatesCallerCopies(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()
	order := domain.NewOrder("order_1", time.Now())
	require.NoError(t, store.Save(ctx, order))

	order.AdjustVendorBalance(-100, time.Now())

	stored, err := store.Get(ctx, "order_1")
	require.NoError(t, err)
	assert.Zero(t, stored.VendorBalance)

	stored.AdjustVendorBalance(-200, time.Now())
	again, err := store.Get(ctx, "order_1")
	require.NoError(t, err)
	assert.Zero(t, again.VendorBalance)
}

func TestOrderStore_SaveRequiresID(t *testing.T) {
	assert.Error(t, NewOrderStore().Save(context.Background(), &domain.Order{}))
}

func TestIdempotencyStore_NoTTLKeepsForever(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(0)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "key-1", domain.RefundResult{Kind: domain.RefundKindFull, RefundID: "rfnd_1"}))

	store.now = func() time.Time { return now.Add(24 * 365 * time.Hour) }
	result, ok, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rfnd_1", result.RefundID)
}

func TestIdempotencyStore_TTLExpires(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "key-1", domain.RefundResult{RefundID: "rfnd_1"}))

	store.now = func() time.Time { return now.Add(59 * time.Minute) }
	_, ok, _ := store.Get(ctx, "key-1")
	assert.True(t, ok)

	store.now = func() time.Time { return now.Add(time.Hour) }
	_, ok, _ = store.Get(ctx, "key-1")
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestIdempotencyStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "old", domain.RefundResult{RefundID: "rfnd_1"}))
	store.now = func() time.Time { return now.Add(30 * time.Minute) }
	require.NoError(t, store.Put(ctx, "fresh", domain.RefundResult{RefundID: "rfnd_2"}))

	store.now = func() time.Time { return now.Add(time.Hour) }
	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, store.Len())

	_, ok, _ := store.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestIdempotencyStore_UnknownKey(t *testing.T) {
	result, ok, err := NewIdempotencyStore(0).Get(context.Background(), "nope")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestBookingStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewBookingStore()
	booking := &domain.Booking{ID: "bk_1", OrderID: "order_1", Status: domain.BookingStatusPendingPayment}

	require.NoError(t, store.Create(ctx, booking))
	assert.Error(t, store.Create(ctx, booking))

	require.NoError(t, store.UpdateStatus(ctx, "bk_1", domain.BookingStatusConfirmed))
	got, err := store.GetByID(ctx, "bk_1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, got.Status)

	_, err = store.GetByID(ctx, "bk_missing")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeBookingNotFound))
	assert.True(t, domain.IsDomainError(store.UpdateStatus(ctx, "bk_missing", domain.BookingStatusCancelled), domain.ErrorCodeBookingNotFound))
}
