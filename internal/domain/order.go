package domain

import "time"

// DefaultCurrency is used for orders and bookings that do not name one.
const DefaultCurrency = "INR"

// PaymentStatus is the provider-reported state of a payment
type PaymentStatus string

const (
	PaymentStatusCaptured PaymentStatus = "captured"
)

// Payment is a captured customer payment. Immutable once recorded.
type Payment struct {
	ID         string        `json:"id"`
	Amount     int64         `json:"amount"`
	Currency   string        `json:"currency"`
	Status     PaymentStatus `json:"status"`
	CapturedAt time.Time     `json:"captured_at"`
}

// Reversal is a successful pull-back of part of a transfer from the vendor account.
type Reversal struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Transfer moves the vendor's share of a payment to their sub-account.
type Transfer struct {
	ID             string     `json:"id"`
	PaymentID      string     `json:"payment_id"`
	Amount         int64      `json:"amount"`
	OnHold         bool       `json:"on_hold"`
	ReversedAmount int64      `json:"reversed_amount"`
	Reversals      []Reversal `json:"reversals"`
}

// Refund is a successful refund issued to the customer.
type Refund struct {
	ID         string    `json:"id"`
	PaymentID  string    `json:"payment_id"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
	ReverseAll bool      `json:"reverse_all"`
	ReversalID string    `json:"reversal_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Order is the settlement record for one booking. All amounts are in minor units.
//
// Payments, Transfers and Refunds are append-only. AmountPaid always equals the
// sum of Payments[i].Amount. VendorBalance goes negative when a reversal could not
// be made and the shortfall is owed by the vendor.
type Order struct {
	ID            string     `json:"id"`
	BookingID     string     `json:"booking_id,omitempty"`
	Currency      string     `json:"currency"`
	AmountDue     int64      `json:"amount_due"`
	AmountPaid    int64      `json:"amount_paid"`
	PlatformFee   int64      `json:"platform_fee"`
	VendorBalance int64      `json:"vendor_balance"`
	Payments      []Payment  `json:"payments"`
	Transfers     []Transfer `json:"transfers"`
	Refunds       []Refund   `json:"refunds"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewOrder returns an empty order with its collections initialized.
func NewOrder(id string, now time.Time) *Order {
	return &Order{
		ID:        id,
		Currency:  DefaultCurrency,
		Payments:  []Payment{},
		Transfers: []Transfer{},
		Refunds:   []Refund{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasPayment reports whether a payment with the given gateway id is already recorded.
func (o *Order) HasPayment(paymentID string) bool {
	for _, p := range o.Payments {
		if p.ID == paymentID {
			return true
		}
	}
	return false
}

// FirstPayment returns the first captured payment, if any.
func (o *Order) FirstPayment() (Payment, bool) {
	if len(o.Payments) == 0 {
		return Payment{}, false
	}
	return o.Payments[0], true
}

// FirstTransfer returns the first vendor transfer, if any.
func (o *Order) FirstTransfer() (Transfer, bool) {
	if len(o.Transfers) == 0 {
		return Transfer{}, false
	}
	return o.Transfers[0], true
}

// HasTransfer reports whether transferID belongs to this order.
func (o *Order) HasTransfer(transferID string) bool {
	for _, t := range o.Transfers {
		if t.ID == transferID {
			return true
		}
	}
	return false
}

// RefundedFor sums the successful refunds issued against one payment.
func (o *Order) RefundedFor(paymentID string) int64 {
	var total int64
	for _, r := range o.Refunds {
		if r.PaymentID == paymentID {
			total += r.Amount
		}
	}
	return total
}

// TotalRefunded sums all successful refunds.
func (o *Order) TotalRefunded() int64 {
	var total int64
	for _, r := range o.Refunds {
		total += r.Amount
	}
	return total
}

// RecordCapture appends a payment and the transfer created for it.
func (o *Order) RecordCapture(payment Payment, transfer Transfer, platformFee int64, now time.Time) {
	o.Payments = append(o.Payments, payment)
	o.Transfers = append(o.Transfers, transfer)
	o.AmountPaid += payment.Amount
	o.PlatformFee += platformFee
	if payment.Currency != "" {
		o.Currency = payment.Currency
	}
	o.UpdatedAt = now
}

// RecordReversal attaches a successful reversal to the transfer it was made against.
func (o *Order) RecordReversal(transferID string, reversal Reversal, now time.Time) bool {
	for i := range o.Transfers {
		if o.Transfers[i].ID == transferID {
			o.Transfers[i].Reversals = append(o.Transfers[i].Reversals, reversal)
			o.Transfers[i].ReversedAmount += reversal.Amount
			o.UpdatedAt = now
			return true
		}
	}
	return false
}

// RecordRefund appends a successful refund.
func (o *Order) RecordRefund(refund Refund, now time.Time) {
	o.Refunds = append(o.Refunds, refund)
	o.UpdatedAt = now
}

// ReleaseTransfer clears the hold flag on the given transfer.
func (o *Order) ReleaseTransfer(transferID string, now time.Time) bool {
	for i := range o.Transfers {
		if o.Transfers[i].ID == transferID {
			o.Transfers[i].OnHold = false
			o.UpdatedAt = now
			return true
		}
	}
	return false
}

// AdjustVendorBalance applies delta to the vendor balance.
func (o *Order) AdjustVendorBalance(delta int64, now time.Time) {
	o.VendorBalance += delta
	o.UpdatedAt = now
}

// Clone returns a deep copy so stores never share slices with callers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Payments = append([]Payment{}, o.Payments...)
	c.Refunds = append([]Refund{}, o.Refunds...)
	c.Transfers = make([]Transfer, len(o.Transfers))
	for i, t := range o.Transfers {
		t.Reversals = append([]Reversal{}, t.Reversals...)
		c.Transfers[i] = t
	}
	return &c
}
