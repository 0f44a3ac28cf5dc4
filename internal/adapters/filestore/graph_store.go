package filestore

import (
	"context"
	"fmt"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/platform/obs"
	"wip-tracker-service/internal/ports"

	"github.com/viant/afs"
)

// GraphStore keeps the diagram in a single {nodes, edges} JSON file.
type GraphStore struct {
	doc *document[domain.Graph]
}

var _ ports.GraphRepository = (*GraphStore)(nil)

func NewGraphStore(ctx context.Context, fs afs.Service, dir, name string) (*GraphStore, error) {
	doc, err := newDocument(ctx, fs, dir, name, domain.NewGraph, nil)
	if err != nil {
		return nil, fmt.Errorf("graph store: %w", err)
	}
	if err := doc.init(ctx); err != nil {
		return nil, fmt.Errorf("graph store: %w", err)
	}
	return &GraphStore{doc: doc}, nil
}

func (s *GraphStore) LoadGraph(ctx context.Context) (_ *domain.Graph, err error) {
	defer obs.Time(ctx, "graph.Load")(&err)

	g, err := s.doc.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	normalizeGraph(g)
	return g, nil
}

func (s *GraphStore) UpdateGraph(ctx context.Context, fn func(g *domain.Graph) error) (err error) {
	defer obs.Time(ctx, "graph.Update")(&err)

	return s.doc.update(ctx, func(g *domain.Graph) error {
		normalizeGraph(g)
		return fn(g)
	})
}

// normalizeGraph turns null collections into empty ones so they encode as [].
func normalizeGraph(g *domain.Graph) {
	if g.Nodes == nil {
		g.Nodes = []domain.Node{}
	}
	if g.Edges == nil {
		g.Edges = []domain.Edge{}
	}
}
