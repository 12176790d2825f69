package mocks

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockSettlementGateway mocks ports.SettlementGateway
type MockSettlementGateway struct {
	mock.Mock
}

func (m *MockSettlementGateway) CreateTransfer(ctx context.Context, paymentID string, amount int64) (*ports.TransferReceipt, error) {
	args := m.Called(ctx, paymentID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.TransferReceipt), args.Error(1)
}

func (m *MockSettlementGateway) CreateRefund(ctx context.Context, paymentID string, amount int64, reason string, reverseAll bool) (*ports.RefundReceipt, error) {
	args := m.Called(ctx, paymentID, amount, reason, reverseAll)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RefundReceipt), args.Error(1)
}

func (m *MockSettlementGateway) ReverseTransfer(ctx context.Context, transferID string, amount int64) (*ports.ReversalReceipt, error) {
	args := m.Called(ctx, transferID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ReversalReceipt), args.Error(1)
}

func (m *MockSettlementGateway) ReleaseHold(ctx context.Context, transferID string) error {
	args := m.Called(ctx, transferID)
	return args.Error(0)
}
