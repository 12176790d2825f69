package ports

import (
	"context"

	"github.com/oyoplus/booking-service/internal/services/webhook"
)

// WebhookProcessor applies signed provider webhooks
type WebhookProcessor interface {
	Process(ctx context.Context, body []byte, signature string) (*webhook.Result, error)
}
