package memory

import (
	"context"
	"sync"
	"wip-tracker-service/internal/domain"
)

// EventRecorder captures published events in order.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.LotEvent
	Err    error
}

func (r *EventRecorder) Publish(ctx context.Context, event domain.LotEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

func (r *EventRecorder) Events() []domain.LotEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LotEvent(nil), r.events...)
}

// Kinds lists the recorded event kinds.
func (r *EventRecorder) Kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}
