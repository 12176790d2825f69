package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	bookingHandler "github.com/oyoplus/booking-service/internal/handlers/booking"
	cronHandler "github.com/oyoplus/booking-service/internal/handlers/cron"
	paymentHandler "github.com/oyoplus/booking-service/internal/handlers/payment"
	secmw "github.com/oyoplus/booking-service/internal/middleware"
	webhookService "github.com/oyoplus/booking-service/internal/services/webhook"
	"github.com/oyoplus/booking-service/pkg/middleware"
	"github.com/oyoplus/booking-service/pkg/observability"
)

type routes struct {
	settlement *paymentHandler.SettlementHandler
	webhook    *paymentHandler.WebhookHandler
	booking    *bookingHandler.Handler
	cleanup    *cronHandler.IdempotencyCleanupHandler
	health     http.HandlerFunc
}

type routerConfig struct {
	corsOrigins    []string
	handlerTimeout time.Duration
	development    bool
	rateLimiter    *middleware.RateLimiter
}

func newRouter(rt routes, rc routerConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(observability.HTTPMetrics)
	r.Use(secmw.NewSecurityHeaders(rc.development).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rc.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", paymentHandler.IdempotencyKeyHeader, webhookService.SignatureHeader},
		ExposedHeaders: []string{paymentHandler.ReplayedHeader, chimw.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", rt.health)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/api", func(r chi.Router) {
		if rc.rateLimiter != nil {
			r.Use(rc.rateLimiter.Middleware)
		}
		if rc.handlerTimeout > 0 {
			r.Use(chimw.Timeout(rc.handlerTimeout))
		}

		r.Post("/webhooks/payments", rt.webhook.HandlePayment)

		r.Post("/refunds", rt.settlement.Refund)
		r.Post("/settlements/release", rt.settlement.Release)
		r.Get("/orders/{id}", rt.settlement.GetOrder)

		r.Post("/bookings", rt.booking.Create)
		r.Get("/bookings/{id}", rt.booking.Get)
		r.Get("/properties", rt.booking.ListProperties)
	})

	r.Route("/cron", func(r chi.Router) {
		r.Post("/purge-idempotency-keys", rt.cleanup.PurgeExpiredKeys)
		r.Get("/health", rt.cleanup.HealthCheck)
	})

	return r
}
