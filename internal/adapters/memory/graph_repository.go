package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"wip-tracker-service/internal/domain"
)

// GraphRepository keeps the diagram in memory.
type GraphRepository struct {
	mu    sync.Mutex
	graph *domain.Graph
}

func NewGraphRepository(g *domain.Graph) *GraphRepository {
	if g == nil {
		g = domain.NewGraph()
	}
	return &GraphRepository{graph: g}
}

func (r *GraphRepository) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneGraph(r.graph)
}

func (r *GraphRepository) UpdateGraph(ctx context.Context, fn func(g *domain.Graph) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := cloneGraph(r.graph)
	if err != nil {
		return err
	}
	if err := fn(g); err != nil {
		return err
	}
	r.graph = g
	return nil
}

// cloneGraph round-trips through JSON so opaque node data is deep-copied
// the same way the file store would see it.
func cloneGraph(g *domain.Graph) (*domain.Graph, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("clone graph: marshal: %w", err)
	}
	out := domain.NewGraph()
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("clone graph: unmarshal: %w", err)
	}
	return out, nil
}
