package booking

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/handlers"
	"github.com/oyoplus/booking-service/internal/services/ports"
	"go.uber.org/zap"
)

// Handler serves the booking endpoints used by the site
type Handler struct {
	service ports.BookingService
	logger  *zap.Logger
}

// NewHandler creates a new booking handler
func NewHandler(service ports.BookingService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// BookingResponse wraps a single booking
type BookingResponse struct {
	OK      bool            `json:"ok"`
	Booking *domain.Booking `json:"booking"`
}

// PropertiesResponse wraps the catalog listing
type PropertiesResponse struct {
	OK         bool              `json:"ok"`
	Properties []domain.Property `json:"properties"`
}

// Create handles POST /api/bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	r.Body = http.MaxBytesReader(w, r.Body, handlers.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteBadRequest(w, "request body must be valid JSON")
		return
	}

	booking, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("Booking reserved",
		zap.String("booking_id", booking.ID),
		zap.String("order_id", booking.OrderID),
	)
	handlers.WriteJSON(w, http.StatusCreated, BookingResponse{OK: true, Booking: booking})
}

// Get handles GET /api/bookings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, BookingResponse{OK: true, Booking: booking})
}

// ListProperties handles GET /api/properties
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.service.Properties(r.Context())
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, PropertiesResponse{OK: true, Properties: props})
}

// writeError reports server-side failures with the site's reserve_failed code
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if status, _ := handlers.Classify(err); status >= http.StatusInternalServerError {
		h.logger.Error("Booking failed", zap.Error(err))
		handlers.WriteJSON(w, status, handlers.ErrorResponse{Error: "reserve_failed"})
		return
	}
	handlers.WriteError(w, h.logger, err)
}
