package webhook

import (
	"bytes"
	"encoding/json"
	"time"
)

// EventPaymentCaptured is the only event that changes the ledger
const EventPaymentCaptured = "payment.captured"

type envelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID        string          `json:"id"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	OrderID   string          `json:"order_id"`
	CreatedAt int64           `json:"created_at"`
	Notes     json.RawMessage `json:"notes"`
}

// noteOrderID reads notes.order_id. The provider sends an empty array
// instead of an object when there are no notes.
func (e paymentEntity) noteOrderID() string {
	raw := bytes.TrimSpace(e.Notes)
	if len(raw) == 0 || raw[0] != '{' {
		return ""
	}
	var notes map[string]interface{}
	if err := json.Unmarshal(raw, &notes); err != nil {
		return ""
	}
	id, _ := notes["order_id"].(string)
	return id
}

// orderID resolves the ledger order: notes first, then the provider order,
// then the payment itself.
func (e paymentEntity) orderID() string {
	if id := e.noteOrderID(); id != "" {
		return id
	}
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.ID
}

func (e paymentEntity) capturedAt() time.Time {
	if e.CreatedAt <= 0 {
		return time.Time{}
	}
	return time.Unix(e.CreatedAt, 0).UTC()
}
