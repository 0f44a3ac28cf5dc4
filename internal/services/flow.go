package services

import (
	"context"
	"fmt"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/ports"
)

// NodePosition is one entry of a batch position update.
type NodePosition struct {
	ID       string
	Position domain.Position
}

// ReplaceNodes overwrites the diagram's node list, keeping edges.
func ReplaceNodes(ctx context.Context, repo ports.GraphRepository, nodes []domain.Node) ([]domain.Node, error) {
	if nodes == nil {
		nodes = []domain.Node{}
	}
	if err := repo.UpdateGraph(ctx, func(g *domain.Graph) error {
		g.Nodes = nodes
		return nil
	}); err != nil {
		return nil, fmt.Errorf("replace nodes: %w", err)
	}
	return nodes, nil
}

// ReplaceEdges overwrites the diagram's edge list, keeping nodes.
func ReplaceEdges(ctx context.Context, repo ports.GraphRepository, edges []domain.Edge) ([]domain.Edge, error) {
	if edges == nil {
		edges = []domain.Edge{}
	}
	if err := repo.UpdateGraph(ctx, func(g *domain.Graph) error {
		g.Edges = edges
		return nil
	}); err != nil {
		return nil, fmt.Errorf("replace edges: %w", err)
	}
	return edges, nil
}

// BatchUpdatePositions moves diagram nodes. Ids that match no node are
// skipped; the number of nodes moved is returned.
func BatchUpdatePositions(ctx context.Context, repo ports.GraphRepository, updates []NodePosition) (int, error) {
	moved := 0
	if err := repo.UpdateGraph(ctx, func(g *domain.Graph) error {
		moved = 0
		for _, u := range updates {
			if i := g.NodeIndex(u.ID); i >= 0 {
				g.Nodes[i].Position = u.Position
				moved++
			}
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("batch update positions: %w", err)
	}
	return moved, nil
}

// PatchNodeData shallow-merges data into a node's data map.
func PatchNodeData(ctx context.Context, repo ports.GraphRepository, id string, data map[string]any) (*domain.Node, error) {
	var out domain.Node
	err := repo.UpdateGraph(ctx, func(g *domain.Graph) error {
		i := g.NodeIndex(id)
		if i < 0 {
			return fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
		}

		n := &g.Nodes[i]
		if n.Data == nil {
			n.Data = make(map[string]any, len(data))
		}
		for k, v := range data {
			n.Data[k] = v
		}
		out = *n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("patch node data: %w", err)
	}
	return &out, nil
}
