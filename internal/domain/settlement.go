package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RefundKind distinguishes the two successful refund paths.
type RefundKind string

const (
	RefundKindFull    RefundKind = "full"
	RefundKindPartial RefundKind = "partial"
)

// RefundResult is the successful outcome of reconciling a refund request.
// Failures are returned as *DomainError instead.
type RefundResult struct {
	Kind               RefundKind `json:"kind"`
	OrderID            string     `json:"order_id"`
	RefundID           string     `json:"refund_id"`
	ReversedTransferID string     `json:"reversed_transfer_id,omitempty"`
	Amount             int64      `json:"amount"`
}

// RefundIntent is a request to return money to the customer.
type RefundIntent struct {
	OrderID string
	Amount  int64
	Reason  string
}

// Validate checks the intent before any gateway call is made.
func (r RefundIntent) Validate() error {
	if r.OrderID == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "order_id is required")
	}
	if r.Amount <= 0 {
		return NewDomainError(ErrorCodeValidationAmountInvalid, fmt.Sprintf("refund amount must be positive, got %d", r.Amount))
	}
	return nil
}

// FeeSplit is how one captured payment divides between platform and vendor.
type FeeSplit struct {
	PlatformFee int64
	HotelShare  int64
}

var hundred = decimal.NewFromInt(100)

// SplitPayment computes round(amount*pct/100) as the platform fee, rounding half away
// from zero, and gives the remainder to the vendor.
func SplitPayment(amount int64, platformFeePct decimal.Decimal) (FeeSplit, error) {
	if amount <= 0 {
		return FeeSplit{}, NewDomainError(ErrorCodeValidationAmountInvalid, fmt.Sprintf("payment amount must be positive, got %d", amount))
	}
	if platformFeePct.IsNegative() || platformFeePct.GreaterThan(hundred) {
		return FeeSplit{}, NewDomainError(ErrorCodeValidationFailed, fmt.Sprintf("platform fee percentage %s outside [0,100]", platformFeePct))
	}

	fee := decimal.NewFromInt(amount).Mul(platformFeePct).Div(hundred).Round(0).IntPart()
	return FeeSplit{
		PlatformFee: fee,
		HotelShare:  amount - fee,
	}, nil
}
