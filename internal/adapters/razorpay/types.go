package razorpay

type transferSpec struct {
	Account  string `json:"account"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OnHold   bool   `json:"on_hold"`
}

type createTransferRequest struct {
	Transfers []transferSpec `json:"transfers"`
}

type transferEntity struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	Recipient      string `json:"recipient"`
	Amount         int64  `json:"amount"`
	AmountReversed int64  `json:"amount_reversed"`
	OnHold         bool   `json:"on_hold"`
}

type transferCollection struct {
	Entity string           `json:"entity"`
	Count  int              `json:"count"`
	Items  []transferEntity `json:"items"`
}

type createRefundRequest struct {
	Amount     int64             `json:"amount"`
	ReverseAll bool              `json:"reverse_all"`
	Notes      map[string]string `json:"notes,omitempty"`
}

type refundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type reverseTransferRequest struct {
	Amount int64 `json:"amount"`
}

type reversalEntity struct {
	ID         string `json:"id"`
	TransferID string `json:"transfer_id"`
	Amount     int64  `json:"amount"`
}

type releaseHoldRequest struct {
	OnHold bool `json:"on_hold"`
}

// errorResponse is the provider's error envelope
type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Reason      string `json:"reason"`
		Source      string `json:"source"`
		Step        string `json:"step"`
	} `json:"error"`
}
