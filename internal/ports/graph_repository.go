package ports

import (
	"context"
	"wip-tracker-service/internal/domain"
)

// Port: the process flow diagram store.
type GraphRepository interface {
	// Return the whole diagram.
	LoadGraph(ctx context.Context) (*domain.Graph, error)
	// Apply fn to the stored diagram and persist the result as one read-modify-write.
	// The diagram is left untouched when fn returns an error.
	UpdateGraph(ctx context.Context, fn func(g *domain.Graph) error) error
}
