package payment

import (
	"io"
	"net/http"

	"github.com/oyoplus/booking-service/internal/handlers"
	"github.com/oyoplus/booking-service/internal/services/ports"
	"github.com/oyoplus/booking-service/internal/services/webhook"
	"go.uber.org/zap"
)

// WebhookHandler receives payment provider webhooks
type WebhookHandler struct {
	processor ports.WebhookProcessor
	logger    *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(processor ports.WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: logger}
}

// WebhookResponse acknowledges a delivery
type WebhookResponse struct {
	OK        bool   `json:"ok"`
	OrderID   string `json:"order_id,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// HandlePayment handles POST /api/webhooks/payments. The body is read raw so
// the signature is checked over the exact bytes received.
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, handlers.MaxBodyBytes))
	if err != nil {
		handlers.WriteBadRequest(w, "failed to read webhook body")
		return
	}

	result, err := h.processor.Process(r.Context(), body, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		if status, _ := handlers.Classify(err); status == http.StatusUnauthorized {
			h.logger.Warn("Webhook signature rejected", zap.String("remote_addr", r.RemoteAddr))
		}
		handlers.WriteError(w, h.logger, err)
		return
	}

	h.logger.Info("Webhook processed",
		zap.String("event", result.Event),
		zap.String("order_id", result.OrderID),
		zap.Bool("ignored", result.Ignored),
		zap.Bool("duplicate", result.Duplicate),
	)
	handlers.WriteJSON(w, http.StatusOK, WebhookResponse{
		OK:        true,
		OrderID:   result.OrderID,
		Ignored:   result.Ignored,
		Duplicate: result.Duplicate,
	})
}
