package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oyoplus/booking-service/internal/adapters/memory"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/internal/services/idempotency"
	"github.com/oyoplus/booking-service/internal/services/ledger"
	"github.com/oyoplus/booking-service/pkg/resilience"
	"github.com/oyoplus/booking-service/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *memory.OrderStore
	gateway   *mocks.MockSettlementGateway
	publisher *mocks.RecordingPublisher
	service   *Service
	calls     *callLog
}

type callLog struct {
	mu    sync.Mutex
	names []string
}

func (c *callLog) add(name string) func(mock.Arguments) {
	return func(mock.Arguments) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.names = append(c.names, name)
	}
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.names...)
}

func setupSettlement(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewOrderStore()
	gateway := new(mocks.MockSettlementGateway)
	logger := mocks.NewMockLogger()
	l := ledger.NewLedger(store, gateway, decimal.NewFromInt(10), logger)
	publisher := mocks.NewRecordingPublisher()
	service := NewService(l, NewReconciler(l, gateway, logger),
		idempotency.NewCache(memory.NewIdempotencyStore(0), logger), publisher, logger).
		WithTimeouts(resilience.TestTimeoutConfig())
	return &fixture{store: store, gateway: gateway, publisher: publisher, service: service, calls: &callLog{}}
}

// seedOrder stores an order with one captured payment of paid and one held
// transfer per entry of transfers.
func (f *fixture) seedOrder(t *testing.T, paid int64, transfers ...int64) {
	t.Helper()
	order := domain.NewOrder("order_1", time.Now())
	order.Payments = append(order.Payments, domain.Payment{ID: "pay_1", Amount: paid, Status: domain.PaymentStatusCaptured})
	order.AmountPaid = paid
	for i, amount := range transfers {
		order.Transfers = append(order.Transfers, domain.Transfer{
			ID: fmt.Sprintf("trf_%d", i+1), PaymentID: "pay_1", Amount: amount, OnHold: true,
		})
	}
	require.NoError(t, f.store.Save(context.Background(), order))
}

func (f *fixture) expectReverse(transferID string, amount int64, receipt *ports.ReversalReceipt, err error) {
	f.gateway.On("ReverseTransfer", mock.Anything, transferID, amount).
		Run(f.calls.add("reverse")).Return(receipt, err)
}

func (f *fixture) expectRefund(amount int64, reverseAll bool, receipt *ports.RefundReceipt, err error) {
	f.gateway.On("CreateRefund", mock.Anything, "pay_1", amount, mock.AnythingOfType("string"), reverseAll).
		Run(f.calls.add("refund")).Return(receipt, err)
}

func (f *fixture) order(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.store.Get(context.Background(), "order_1")
	require.NoError(t, err)
	return order
}

func TestRefund_FullPathReversesAllWithoutSeparateReversal(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.expectRefund(1000, true, &ports.RefundReceipt{ID: "rfnd_full"}, nil)

	result, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 1000, Reason: "cancelled"})

	require.NoError(t, err)
	assert.Equal(t, domain.RefundKindFull, result.Kind)
	assert.Equal(t, "rfnd_full", result.RefundID)
	assert.Empty(t, result.ReversedTransferID)
	f.gateway.AssertNotCalled(t, "ReverseTransfer", mock.Anything, mock.Anything, mock.Anything)

	order := f.order(t)
	require.Len(t, order.Refunds, 1)
	assert.True(t, order.Refunds[0].ReverseAll)
	assert.Zero(t, order.VendorBalance)
	assert.Equal(t, []string{domain.EventRefundCompleted}, f.publisher.Types())
}

func TestRefund_FullAmountWithTwoTransfersTakesPartialPath(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 450, 450)
	f.expectReverse("trf_1", 1000, &ports.ReversalReceipt{ID: "rvrsl_1", TransferID: "trf_1", Amount: 1000}, nil)
	f.expectRefund(1000, false, &ports.RefundReceipt{ID: "rfnd_1"}, nil)

	result, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 1000})

	require.NoError(t, err)
	assert.Equal(t, domain.RefundKindPartial, result.Kind)
	f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, true)
}

func TestRefund_PartialPathReversesThenRefunds(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.expectReverse("trf_1", 300, &ports.ReversalReceipt{ID: "rvrsl_1", TransferID: "trf_1", Amount: 300}, nil)
	f.expectRefund(300, false, &ports.RefundReceipt{ID: "rfnd_1"}, nil)

	result, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 300, Reason: "one night"})

	require.NoError(t, err)
	assert.Equal(t, domain.RefundKindPartial, result.Kind)
	assert.Equal(t, "rfnd_1", result.RefundID)
	assert.Equal(t, "rvrsl_1", result.ReversedTransferID)
	assert.Equal(t, []string{"reverse", "refund"}, f.calls.list())

	order := f.order(t)
	assert.Equal(t, int64(300), order.Transfers[0].ReversedAmount)
	require.Len(t, order.Transfers[0].Reversals, 1)
	require.Len(t, order.Refunds, 1)
	assert.Equal(t, "rvrsl_1", order.Refunds[0].ReversalID)
	assert.Equal(t, "one night", order.Refunds[0].Reason)
	assert.Zero(t, order.VendorBalance)
}

func TestRefund_ReversalFailureChargesVendorBalance(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	seeded := f.order(t)
	seeded.VendorBalance = 50
	require.NoError(t, f.store.Save(context.Background(), seeded))
	f.expectReverse("trf_1", 300, nil, domain.NewGatewayError("BAD_REQUEST_ERROR", "transfer already settled"))
	f.expectRefund(300, false, &ports.RefundReceipt{ID: "rfnd_1"}, nil)

	result, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 300})

	require.NoError(t, err)
	assert.Empty(t, result.ReversedTransferID)
	assert.Equal(t, []string{"reverse", "refund"}, f.calls.list())

	order := f.order(t)
	assert.Equal(t, int64(50-300), order.VendorBalance)
	assert.Zero(t, order.Transfers[0].ReversedAmount)
	require.Len(t, order.Refunds, 1)
	assert.Empty(t, order.Refunds[0].ReversalID)

	body, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "reversed_transfer_id")
}

func TestRefund_RefundFailureKeepsOnlyBalanceAdjustment(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.expectReverse("trf_1", 300, nil, domain.NewGatewayTimeout("reverse_transfer", context.DeadlineExceeded))
	f.expectRefund(300, false, nil, domain.NewGatewayError("SERVER_ERROR", "upstream unavailable"))

	_, _, err := f.service.Refund(context.Background(), "key-1", domain.RefundIntent{OrderID: "order_1", Amount: 300})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeRefundFailed))
	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "SERVER_ERROR", domainErr.ReasonCode())

	order := f.order(t)
	assert.Equal(t, int64(-300), order.VendorBalance)
	assert.Empty(t, order.Refunds)
	assert.Empty(t, f.publisher.Events)
}

func TestRefund_RefundFailureAfterReversalDoesNotStoreReversal(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.expectReverse("trf_1", 300, &ports.ReversalReceipt{ID: "rvrsl_1"}, nil)
	f.expectRefund(300, false, nil, domain.NewGatewayTimeout("create_refund", context.DeadlineExceeded))

	_, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 300})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeRefundFailed))
	assert.ErrorIs(t, err, domain.ErrGatewayTimeout)
	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "rvrsl_1", domainErr.Details["reversal_id"])

	order := f.order(t)
	assert.Zero(t, order.VendorBalance)
	assert.Zero(t, order.Transfers[0].ReversedAmount)
	assert.Empty(t, order.Refunds)
}

func TestRefund_FullPathFailureIsRefundFailed(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.expectRefund(1000, true, nil, domain.NewGatewayError("BAD_REQUEST_ERROR", "payment already refunded"))

	_, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 1000})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeRefundFailed))
	assert.Empty(t, f.order(t).Refunds)
}

func TestRefund_PartialWithoutTransferChargesVendorBalance(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000)
	f.expectRefund(400, false, &ports.RefundReceipt{ID: "rfnd_1"}, nil)

	result, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 400})

	require.NoError(t, err)
	assert.Empty(t, result.ReversedTransferID)
	assert.Equal(t, int64(-400), f.order(t).VendorBalance)
	f.gateway.AssertNotCalled(t, "ReverseTransfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefund_RejectedBeforeGateway(t *testing.T) {
	f := setupSettlement(t)
	require.NoError(t, f.store.Save(context.Background(), domain.NewOrder("order_unpaid", time.Now())))

	tests := []struct {
		name   string
		intent domain.RefundIntent
		code   domain.ErrorCode
	}{
		{name: "unknown_order", intent: domain.RefundIntent{OrderID: "order_missing", Amount: 100}, code: domain.ErrorCodeOrderNotFound},
		{name: "no_payment", intent: domain.RefundIntent{OrderID: "order_unpaid", Amount: 100}, code: domain.ErrorCodeNoPaymentRecorded},
		{name: "zero_amount", intent: domain.RefundIntent{OrderID: "order_unpaid", Amount: 0}, code: domain.ErrorCodeValidationAmountInvalid},
		{name: "missing_order_id", intent: domain.RefundIntent{Amount: 100}, code: domain.ErrorCodeValidationMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.service.Refund(context.Background(), "", tt.intent)
			assert.True(t, domain.IsDomainError(err, tt.code), "got %v", err)
		})
	}
	f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "ReverseTransfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefund_AboveRefundableIsRejectedBeforeGateway(t *testing.T) {
	tests := []struct {
		name     string
		refunded int64
		amount   int64
	}{
		{name: "more_than_paid", amount: 1001},
		{name: "more_than_left_after_refund", refunded: 300, amount: 701},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupSettlement(t)
			f.seedOrder(t, 1000, 900)
			if tt.refunded > 0 {
				seeded := f.order(t)
				seeded.Refunds = append(seeded.Refunds, domain.Refund{ID: "rfnd_0", PaymentID: "pay_1", Amount: tt.refunded})
				require.NoError(t, f.store.Save(context.Background(), seeded))
			}

			_, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: tt.amount})

			assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationAmountInvalid), "got %v", err)
			assert.Zero(t, f.order(t).VendorBalance)
			f.gateway.AssertNotCalled(t, "ReverseTransfer", mock.Anything, mock.Anything, mock.Anything)
			f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRefund_RemainderAfterEarlierRefundIsAllowed(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	seeded := f.order(t)
	seeded.Refunds = append(seeded.Refunds, domain.Refund{ID: "rfnd_0", PaymentID: "pay_1", Amount: 300})
	require.NoError(t, f.store.Save(context.Background(), seeded))
	f.expectReverse("trf_1", 700, &ports.ReversalReceipt{ID: "rvrsl_1"}, nil)
	f.expectRefund(700, false, &ports.RefundReceipt{ID: "rfnd_1"}, nil)

	result, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 700})

	require.NoError(t, err)
	assert.Equal(t, domain.RefundKindPartial, result.Kind)
	assert.Equal(t, int64(1000), f.order(t).TotalRefunded())
}

func TestRefund_IdempotentReplayIsByteIdentical(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.expectReverse("trf_1", 300, &ports.ReversalReceipt{ID: "rvrsl_1"}, nil)
	f.expectRefund(300, false, &ports.RefundReceipt{ID: "rfnd_1"}, nil)

	first, outcome, err := f.service.Refund(context.Background(), "idem-1", domain.RefundIntent{OrderID: "order_1", Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, idempotency.OutcomeExecuted, outcome)
	callsAfterFirst := len(f.gateway.Calls)

	second, outcome, err := f.service.Refund(context.Background(), "idem-1", domain.RefundIntent{OrderID: "order_1", Amount: 500, Reason: "different body"})
	require.NoError(t, err)
	assert.Equal(t, idempotency.OutcomeReplayed, outcome)

	firstBody, _ := json.Marshal(first)
	secondBody, _ := json.Marshal(second)
	assert.Equal(t, string(firstBody), string(secondBody))
	assert.Len(t, f.gateway.Calls, callsAfterFirst)
	assert.Len(t, f.order(t).Refunds, 1)
	assert.Len(t, f.publisher.Events, 1)
}

func TestRefund_PublishFailureDoesNotFailRefund(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.publisher.Err = errors.New("broker down")
	f.expectRefund(1000, true, &ports.RefundReceipt{ID: "rfnd_1"}, nil)

	result, _, err := f.service.Refund(context.Background(), "", domain.RefundIntent{OrderID: "order_1", Amount: 1000})

	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", result.RefundID)
}

func TestRelease(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)
	f.gateway.On("ReleaseHold", mock.Anything, "trf_1").Return(nil).Once()

	transfer, err := f.service.Release(context.Background(), "order_1")

	require.NoError(t, err)
	assert.Equal(t, "trf_1", transfer.ID)
	assert.False(t, transfer.OnHold)
	assert.False(t, f.order(t).Transfers[0].OnHold)
	assert.Equal(t, []string{domain.EventTransferReleased}, f.publisher.Types())

	_, err = f.service.Release(context.Background(), "")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationMissingField))
}

func TestGetOrder(t *testing.T) {
	f := setupSettlement(t)
	f.seedOrder(t, 1000, 900)

	order, err := f.service.GetOrder(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.AmountPaid)

	_, err = f.service.GetOrder(context.Background(), "nope")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderNotFound))
}
