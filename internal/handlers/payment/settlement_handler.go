package payment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/handlers"
	"github.com/oyoplus/booking-service/internal/services/idempotency"
	"github.com/oyoplus/booking-service/internal/services/ports"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client's refund idempotency key
	IdempotencyKeyHeader = "Idempotency-Key"

	// ReplayedHeader is set on responses served from the idempotency cache
	ReplayedHeader = "Idempotent-Replayed"

	maxIdempotencyKey = 255
)

// SettlementHandler serves refunds, hold releases and order lookups
type SettlementHandler struct {
	service ports.SettlementService
	logger  *zap.Logger
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(service ports.SettlementService, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{service: service, logger: logger}
}

// RefundRequest is the body of POST /api/refunds. Amount is in minor units.
type RefundRequest struct {
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Reason  string `json:"reason"`
}

// RefundResponse is the body of a successful refund
type RefundResponse struct {
	OK                 bool   `json:"ok"`
	RefundID           string `json:"refund_id"`
	ReversedTransferID string `json:"reversed_transfer_id,omitempty"`
}

// ReleaseRequest is the body of POST /api/settlements/release
type ReleaseRequest struct {
	OrderID string `json:"order_id"`
}

// ReleaseResponse is the body of a successful release
type ReleaseResponse struct {
	OK         bool   `json:"ok"`
	TransferID string `json:"transfer_id"`
	OnHold     bool   `json:"on_hold"`
}

// OrderResponse wraps an order lookup
type OrderResponse struct {
	OK    bool          `json:"ok"`
	Order *domain.Order `json:"order"`
}

// Refund handles POST /api/refunds
func (h *SettlementHandler) Refund(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKey {
		handlers.WriteBadRequest(w, "Idempotency-Key is too long")
		return
	}

	var req RefundRequest
	if !decode(w, r, &req) {
		return
	}

	result, outcome, err := h.service.Refund(r.Context(), key, domain.RefundIntent{
		OrderID: strings.TrimSpace(req.OrderID),
		Amount:  req.Amount,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}

	if outcome == idempotency.OutcomeReplayed {
		w.Header().Set(ReplayedHeader, "true")
	}
	handlers.WriteJSON(w, http.StatusOK, RefundResponse{
		OK:                 true,
		RefundID:           result.RefundID,
		ReversedTransferID: result.ReversedTransferID,
	})
}

// Release handles POST /api/settlements/release
func (h *SettlementHandler) Release(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if !decode(w, r, &req) {
		return
	}

	transfer, err := h.service.Release(r.Context(), strings.TrimSpace(req.OrderID))
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, ReleaseResponse{
		OK:         true,
		TransferID: transfer.ID,
		OnHold:     transfer.OnHold,
	})
}

// GetOrder handles GET /api/orders/{id}
func (h *SettlementHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, OrderResponse{OK: true, Order: order})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, handlers.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		handlers.WriteBadRequest(w, "request body must be valid JSON")
		return false
	}
	return true
}
