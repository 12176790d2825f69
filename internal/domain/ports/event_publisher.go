package ports

import (
	"context"

	"github.com/oyoplus/booking-service/internal/domain"
)

// EventPublisher emits settlement events to downstream consumers.
// Publishing happens after the ledger change is durable; a failure never undoes it.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SettlementEvent) error
	Close() error
}
