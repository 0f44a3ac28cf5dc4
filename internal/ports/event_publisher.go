package ports

import (
	"context"
	"wip-tracker-service/internal/domain"
)

// Contract for broadcasting lot lifecycle changes to interested listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LotEvent) error
}
