package cron

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/oyoplus/booking-service/internal/handlers"
	"go.uber.org/zap"
)

// CronSecretHeader authenticates scheduler calls
const CronSecretHeader = "X-Cron-Secret"

const purgeTimeout = 60 * time.Second

// Purger removes expired idempotency keys
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// IdempotencyCleanupHandler handles the cron job that drops expired refund keys
type IdempotencyCleanupHandler struct {
	purger     Purger
	logger     *zap.Logger
	cronSecret string
	now        func() time.Time
}

// NewIdempotencyCleanupHandler creates a new cleanup cron handler
func NewIdempotencyCleanupHandler(purger Purger, logger *zap.Logger, cronSecret string) *IdempotencyCleanupHandler {
	return &IdempotencyCleanupHandler{
		purger:     purger,
		logger:     logger,
		cronSecret: cronSecret,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CleanupResponse represents the response from a purge run
type CleanupResponse struct {
	Success     bool   `json:"success"`
	DeletedRows int64  `json:"deleted_rows"`
	ProcessedAt string `json:"processed_at"`
}

// PurgeExpiredKeys handles POST /cron/purge-idempotency-keys
func (h *IdempotencyCleanupHandler) PurgeExpiredKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request",
			zap.String("remote_addr", r.RemoteAddr),
		)
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// The purge outlives a dropped scheduler connection.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), purgeTimeout)
	defer cancel()

	deleted, err := h.purger.PurgeExpired(ctx)
	if err != nil {
		h.logger.Error("Failed to purge idempotency keys", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.logger.Info("Idempotency key cleanup completed",
		zap.Int64("deleted_rows", deleted),
	)

	handlers.WriteJSON(w, http.StatusOK, CleanupResponse{
		Success:     true,
		DeletedRows: deleted,
		ProcessedAt: h.now().Format(time.RFC3339),
	})
}

// HealthCheck returns the health status of the cleanup handler
func (h *IdempotencyCleanupHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "idempotency-cleanup-cron",
		"time":    h.now().Format(time.RFC3339),
	})
}

func (h *IdempotencyCleanupHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	secret := r.Header.Get(CronSecretHeader)
	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.cronSecret)) == 1
}

func (h *IdempotencyCleanupHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	handlers.WriteJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
