package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oyoplus/booking-service/internal/adapters/memory"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupLedger(t *testing.T, feePct string) (*Ledger, *memory.OrderStore, *mocks.MockSettlementGateway) {
	t.Helper()
	store := memory.NewOrderStore()
	gateway := new(mocks.MockSettlementGateway)
	l := NewLedger(store, gateway, decimal.RequireFromString(feePct), mocks.NewMockLogger())
	return l, store, gateway
}

func TestRecordCapture_SplitsAndCreatesHeldTransfer(t *testing.T) {
	l, _, gateway := setupLedger(t, "10")
	gateway.On("CreateTransfer", mock.Anything, "pay_1", int64(900)).
		Return(&ports.TransferReceipt{ID: "trf_1", Amount: 900, OnHold: true}, nil).Once()

	result, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: "pay_1", Amount: 1000})

	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Split.PlatformFee)
	assert.Equal(t, int64(900), result.Split.HotelShare)
	assert.False(t, result.Duplicate)

	order, err := l.Get(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.AmountPaid)
	assert.Equal(t, int64(100), order.PlatformFee)
	require.Len(t, order.Transfers, 1)
	assert.Equal(t, "trf_1", order.Transfers[0].ID)
	assert.Equal(t, int64(900), order.Transfers[0].Amount)
	assert.True(t, order.Transfers[0].OnHold)
	assert.Equal(t, domain.PaymentStatusCaptured, order.Payments[0].Status)
	gateway.AssertExpectations(t)
}

func TestRecordCapture_FeePlusShareEqualsAmount(t *testing.T) {
	for _, pct := range []string{"0", "2.5", "10", "33.33", "99.9", "100"} {
		for _, amount := range []int64{1, 99, 1000, 123457} {
			t.Run(fmt.Sprintf("pct_%s_amount_%d", pct, amount), func(t *testing.T) {
				l, _, gateway := setupLedger(t, pct)
				gateway.On("CreateTransfer", mock.Anything, "pay_1", mock.AnythingOfType("int64")).
					Return(&ports.TransferReceipt{ID: "trf_1", OnHold: true}, nil)

				result, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: "pay_1", Amount: amount})

				require.NoError(t, err)
				assert.Equal(t, amount, result.Split.PlatformFee+result.Split.HotelShare)
				assert.Equal(t, result.Split.HotelShare, result.Transfer.Amount)
			})
		}
	}
}

func TestRecordCapture_GatewayFailureWritesNothing(t *testing.T) {
	l, store, gateway := setupLedger(t, "10")
	gateway.On("CreateTransfer", mock.Anything, "pay_1", int64(900)).
		Return(nil, domain.NewGatewayError("BAD_REQUEST_ERROR", "account not activated"))

	_, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: "pay_1", Amount: 1000})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayError))
	_, err = store.Get(context.Background(), "order_1")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderNotFound))
}

func TestRecordCapture_GatewayFailureLeavesExistingOrderUnchanged(t *testing.T) {
	l, store, gateway := setupLedger(t, "10")
	existing := domain.NewOrder("order_1", time.Now())
	existing.AmountDue = 5000
	require.NoError(t, store.Save(context.Background(), existing))
	gateway.On("CreateTransfer", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.NewGatewayTimeout("create_transfer", context.DeadlineExceeded))

	_, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: "pay_1", Amount: 5000})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayTimeout))
	order, err := store.Get(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Empty(t, order.Payments)
	assert.Empty(t, order.Transfers)
	assert.Zero(t, order.AmountPaid)
}

func TestRecordCapture_DuplicatePaymentIsNoOp(t *testing.T) {
	l, _, gateway := setupLedger(t, "10")
	gateway.On("CreateTransfer", mock.Anything, "pay_1", int64(900)).
		Return(&ports.TransferReceipt{ID: "trf_1", OnHold: true}, nil).Once()

	_, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: "pay_1", Amount: 1000})
	require.NoError(t, err)
	again, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: "pay_1", Amount: 1000})

	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, int64(1000), again.Order.AmountPaid)
	gateway.AssertNumberOfCalls(t, "CreateTransfer", 1)
}

func TestRecordCapture_RejectsNonPositiveAmount(t *testing.T) {
	l, _, gateway := setupLedger(t, "10")

	_, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: "pay_1", Amount: 0})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationAmountInvalid))
	gateway.AssertNotCalled(t, "CreateTransfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordCapture_ConcurrentCapturesOnOneOrderSerialize(t *testing.T) {
	l, _, gateway := setupLedger(t, "10")
	const captures = 25
	for i := 0; i < captures; i++ {
		paymentID := fmt.Sprintf("pay_%d", i)
		gateway.On("CreateTransfer", mock.Anything, paymentID, mock.AnythingOfType("int64")).
			Return(&ports.TransferReceipt{ID: "trf_" + paymentID, OnHold: true}, nil).Once()
	}

	var wg sync.WaitGroup
	for i := 0; i < captures; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.RecordCapture(context.Background(), "order_1", domain.Payment{ID: fmt.Sprintf("pay_%d", i), Amount: int64(100 + i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	order, err := l.Get(context.Background(), "order_1")
	require.NoError(t, err)
	require.Len(t, order.Payments, captures)
	require.Len(t, order.Transfers, captures)

	var sum int64
	for _, p := range order.Payments {
		sum += p.Amount
	}
	assert.Equal(t, sum, order.AmountPaid)
	assert.Zero(t, l.locks.size())
}

func TestMutateBalance(t *testing.T) {
	l, store, _ := setupLedger(t, "10")
	require.NoError(t, store.Save(context.Background(), domain.NewOrder("order_1", time.Now())))

	_, err := l.MutateBalance(context.Background(), "order_1", -300)
	require.NoError(t, err)
	order, err := l.MutateBalance(context.Background(), "order_1", 100)
	require.NoError(t, err)

	assert.Equal(t, int64(-200), order.VendorBalance)

	_, err = l.MutateBalance(context.Background(), "order_missing", 1)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderNotFound))
}

func TestOpen_KeepsExistingOrder(t *testing.T) {
	l, _, _ := setupLedger(t, "10")
	first := domain.NewOrder("order_1", time.Now())
	first.AmountDue = 5000
	require.NoError(t, l.Open(context.Background(), first))

	second := domain.NewOrder("order_1", time.Now())
	second.AmountDue = 9999
	require.NoError(t, l.Open(context.Background(), second))

	order, err := l.Get(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), order.AmountDue)
}

type failingStore struct {
	*memory.OrderStore
	failSave bool
}

func (f *failingStore) Save(ctx context.Context, o *domain.Order) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.OrderStore.Save(ctx, o)
}

func TestSession_ApplyKeepsStateOnStoreFailure(t *testing.T) {
	store := &failingStore{OrderStore: memory.NewOrderStore()}
	l := NewLedger(store, new(mocks.MockSettlementGateway), decimal.NewFromInt(10), mocks.NewMockLogger())
	require.NoError(t, store.Save(context.Background(), domain.NewOrder("order_1", time.Now())))
	store.failSave = true

	err := l.WithOrder(context.Background(), "order_1", func(ctx context.Context, s *Session) error {
		err := s.MutateBalance(ctx, -500)
		assert.Zero(t, s.Order().VendorBalance)
		return err
	})

	assert.Error(t, err)
}

func TestOrderLocks_AcquireHonorsContext(t *testing.T) {
	locks := newOrderLocks()
	release, err := locks.acquire(context.Background(), "order_1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, "order_1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locks.acquire(context.Background(), "order_2")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.Zero(t, locks.size())
}

func seedCapturedOrder(t *testing.T, store *memory.OrderStore, transfers int) {
	t.Helper()
	order := domain.NewOrder("order_1", time.Now())
	for i := 0; i < transfers; i++ {
		order.RecordCapture(
			domain.Payment{ID: fmt.Sprintf("pay_%d", i), Amount: 1000, Status: domain.PaymentStatusCaptured},
			domain.Transfer{ID: fmt.Sprintf("trf_%d", i), PaymentID: fmt.Sprintf("pay_%d", i), Amount: 900, OnHold: true},
			100, time.Now())
	}
	require.NoError(t, store.Save(context.Background(), order))
}

func TestReleaseHold(t *testing.T) {
	l, store, gateway := setupLedger(t, "10")
	seedCapturedOrder(t, store, 1)
	gateway.On("ReleaseHold", mock.Anything, "trf_0").Return(nil).Once()

	transfer, err := l.ReleaseHold(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, "trf_0", transfer.ID)
	assert.False(t, transfer.OnHold)

	again, err := l.ReleaseHold(context.Background(), "order_1")
	require.NoError(t, err)
	assert.False(t, again.OnHold)
	gateway.AssertNumberOfCalls(t, "ReleaseHold", 1)

	order, err := l.Get(context.Background(), "order_1")
	require.NoError(t, err)
	assert.False(t, order.Transfers[0].OnHold)
}

func TestReleaseHold_Failures(t *testing.T) {
	l, store, gateway := setupLedger(t, "10")
	require.NoError(t, store.Save(context.Background(), domain.NewOrder("order_empty", time.Now())))
	seedCapturedOrder(t, store, 1)
	gateway.On("ReleaseHold", mock.Anything, "trf_0").Return(domain.NewGatewayError("BAD_REQUEST_ERROR", "transfer settled"))

	_, err := l.ReleaseHold(context.Background(), "order_empty")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNoTransfer))

	_, err = l.ReleaseHold(context.Background(), "order_1")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayError))
	order, err := l.Get(context.Background(), "order_1")
	require.NoError(t, err)
	assert.True(t, order.Transfers[0].OnHold)

	_, err = l.ReleaseHold(context.Background(), "order_missing")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderNotFound))
}

func TestRecordReversalAndRefund(t *testing.T) {
	l, store, _ := setupLedger(t, "10")
	seedCapturedOrder(t, store, 1)

	require.NoError(t, l.RecordReversal(context.Background(), "order_1", "trf_0", domain.Reversal{ID: "rvrsl_1", Amount: 300}))
	require.NoError(t, l.RecordRefund(context.Background(), "order_1", domain.Refund{ID: "rfnd_1", PaymentID: "pay_0", Amount: 300}))

	err := l.RecordReversal(context.Background(), "order_1", "trf_unknown", domain.Reversal{ID: "rvrsl_2", Amount: 1})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNoTransfer))

	order, err := l.Get(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), order.Transfers[0].ReversedAmount)
	require.Len(t, order.Refunds, 1)
	assert.False(t, order.Refunds[0].CreatedAt.IsZero())
	assert.Equal(t, int64(300), order.TotalRefunded())
}

type countingStore struct {
	*memory.OrderStore
	saves int
}

func (c *countingStore) Save(ctx context.Context, o *domain.Order) error {
	c.saves++
	return c.OrderStore.Save(ctx, o)
}

func TestRecordReversal_UnknownTransferWritesNothing(t *testing.T) {
	inner := memory.NewOrderStore()
	seedCapturedOrder(t, inner, 1)
	before, err := inner.Get(context.Background(), "order_1")
	require.NoError(t, err)

	store := &countingStore{OrderStore: inner}
	l := NewLedger(store, new(mocks.MockSettlementGateway), decimal.NewFromInt(10), mocks.NewMockLogger())

	err = l.RecordReversal(context.Background(), "order_1", "trf_unknown", domain.Reversal{ID: "rvrsl_1", Amount: 100})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNoTransfer))
	assert.Zero(t, store.saves)
	after, err := inner.Get(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}
