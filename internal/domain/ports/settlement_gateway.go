package ports

import "context"

// TransferReceipt is the provider's record of a transfer to the vendor sub-account
type TransferReceipt struct {
	ID     string
	Amount int64
	OnHold bool
}

// RefundReceipt is the provider's record of a refund to the customer
type RefundReceipt struct {
	ID        string
	PaymentID string
	Amount    int64
	Status    string
}

// ReversalReceipt is the provider's record of a transfer reversal
type ReversalReceipt struct {
	ID         string
	TransferID string
	Amount     int64
}

// SettlementGateway is the boundary to the payment provider's route/settlement API.
//
// Every call carries its own deadline. Failures are returned as domain errors with
// code GATEWAY_ERROR (provider reason attached) or GATEWAY_TIMEOUT. Implementations
// must not retry these calls: each one moves money.
type SettlementGateway interface {
	// CreateTransfer moves amount from a captured payment to the vendor account, on hold
	CreateTransfer(ctx context.Context, paymentID string, amount int64) (*TransferReceipt, error)

	// CreateRefund refunds the customer. With reverseAll the provider also pulls back
	// every transfer made from the payment.
	CreateRefund(ctx context.Context, paymentID string, amount int64, reason string, reverseAll bool) (*RefundReceipt, error)

	// ReverseTransfer pulls amount back from the vendor account
	ReverseTransfer(ctx context.Context, transferID string, amount int64) (*ReversalReceipt, error)

	// ReleaseHold lets a held transfer settle to the vendor
	ReleaseHold(ctx context.Context, transferID string) error
}
