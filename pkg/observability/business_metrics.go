package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Capture webhook metrics
	capturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_captures_total",
		Help: "Capture webhooks processed",
	}, []string{
		"status", // recorded, duplicate, failed
	})

	capturedAmountMinor = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_captured_amount_minor_total",
		Help: "Captured payment amount in minor units",
	}, []string{"currency"})

	platformFeeMinor = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_platform_fee_minor_total",
		Help: "Platform fee retained in minor units",
	}, []string{"currency"})

	// Refund reconciliation metrics
	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_refunds_total",
		Help: "Refund reconciliations by outcome",
	}, []string{
		"kind",   // full, partial, none
		"status", // success, failed
	})

	reversalFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_reversal_fallbacks_total",
		Help: "Partial refunds where the transfer reversal failed and the vendor balance was debited instead",
	})

	refundDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_refund_duration_seconds",
		Help:    "End-to-end refund reconciliation time",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	// Idempotency cache metrics
	idempotencyLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idempotency_lookups_total",
		Help: "Idempotency cache lookups",
	}, []string{
		"result", // hit, miss, shared
	})

	// Gateway call metrics
	gatewayCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_calls_total",
		Help: "Calls to the settlement gateway",
	}, []string{
		"operation", // create_transfer, create_refund, reverse_transfer, release_hold
		"outcome",   // success, error, timeout
	})

	gatewayCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_call_duration_seconds",
		Help:    "Settlement gateway call latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	// Booking metrics
	bookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Booking requests by outcome",
	}, []string{
		"status", // created, rejected, failed
	})

	// Event publishing metrics
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_events_published_total",
		Help: "Settlement events handed to the event bus",
	}, []string{"type", "status"})
)

// RecordCapture records a processed capture webhook
func RecordCapture(status, currency string, amountMinor, feeMinor int64) {
	capturesTotal.WithLabelValues(status).Inc()
	if status != "recorded" {
		return
	}
	capturedAmountMinor.WithLabelValues(currency).Add(float64(amountMinor))
	platformFeeMinor.WithLabelValues(currency).Add(float64(feeMinor))
}

// RecordRefund records a refund reconciliation and its duration
func RecordRefund(kind, status string, duration float64) {
	refundsTotal.WithLabelValues(kind, status).Inc()
	refundDuration.WithLabelValues(kind).Observe(duration)
}

// RecordReversalFallback counts a reversal failure absorbed into the vendor balance
func RecordReversalFallback() {
	reversalFallbacksTotal.Inc()
}

// RecordIdempotencyLookup records a cache hit, miss, or shared in-flight result
func RecordIdempotencyLookup(result string) {
	idempotencyLookups.WithLabelValues(result).Inc()
}

// RecordGatewayCall records one settlement gateway call
func RecordGatewayCall(operation, outcome string, duration float64) {
	gatewayCallsTotal.WithLabelValues(operation, outcome).Inc()
	gatewayCallDuration.WithLabelValues(operation).Observe(duration)
}

// RecordBooking records a booking request outcome
func RecordBooking(status string) {
	bookingsTotal.WithLabelValues(status).Inc()
}

// RecordEventPublished records an event publish attempt
func RecordEventPublished(eventType, status string) {
	eventsPublished.WithLabelValues(eventType, status).Inc()
}

// RegisterIdempotencySize exports the number of cached refund results.
// Call it once per process with a store that can report its size.
func RegisterIdempotencySize(size func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "idempotency_cached_results",
		Help: "Refund results currently held under an idempotency key",
	}, func() float64 { return float64(size()) })
}
