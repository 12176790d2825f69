package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines the timeout hierarchy, outermost first:
//
//	HTTP handler (30s)
//	  ↓
//	Settlement operation (25s)
//	  ↓
//	Gateway call (10s, set on the gateway client)
//	  ↓
//	Store query (5s)
//
// Each layer must finish before its parent gives up. Event publishing runs
// after the response is decided and has its own budget.
type TimeoutConfig struct {
	HTTPHandler time.Duration
	Settlement  time.Duration
	Gateway     time.Duration
	Store       time.Duration
	Publish     time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 30 * time.Second,
		Settlement:  25 * time.Second,
		Gateway:     10 * time.Second,
		Store:       5 * time.Second,
		Publish:     5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		Settlement:  4 * time.Second,
		Gateway:     2 * time.Second,
		Store:       1 * time.Second,
		Publish:     1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// SettlementContext bounds one capture, refund or release
func (tc *TimeoutConfig) SettlementContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Settlement)
}

// StoreContext bounds a single store round trip
func (tc *TimeoutConfig) StoreContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Store)
}

// PublishContext bounds event publishing, retries included
func (tc *TimeoutConfig) PublishContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Publish)
}
