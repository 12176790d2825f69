package domain

import (
	"time"

	"github.com/google/uuid"
)

// Settlement event types
const (
	EventCaptureRecorded  = "capture.recorded"
	EventRefundCompleted  = "refund.completed"
	EventTransferReleased = "transfer.released"
	EventBookingCreated   = "booking.created"
)

// SettlementEvent is published after a ledger change has been stored
type SettlementEvent struct {
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"`
	OrderID    string         `json:"order_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

// NewSettlementEvent stamps a fresh event id
func NewSettlementEvent(eventType, orderID string, payload map[string]any, now time.Time) SettlementEvent {
	return SettlementEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		OccurredAt: now.UTC(),
		Payload:    payload,
	}
}
