package services

import (
	"context"
	"testing"
	"wip-tracker-service/internal/adapters/memory"
	"wip-tracker-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowOperations(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewGraphRepository(nil)

	nodes, err := ReplaceNodes(ctx, repo, []domain.Node{
		{ID: "fvi", Type: "process", Data: map[string]any{"label": "FVI"}},
		{ID: "fqa", Type: "process"},
	})
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	edges, err := ReplaceEdges(ctx, repo, nil)
	require.NoError(t, err)
	assert.NotNil(t, edges)

	_, err = ReplaceEdges(ctx, repo, []domain.Edge{{ID: "e1", Source: "fvi", Target: "fqa"}})
	require.NoError(t, err)

	moved, err := BatchUpdatePositions(ctx, repo, []NodePosition{
		{ID: "fvi", Position: domain.Position{X: 1, Y: 2}},
		{ID: "ghost", Position: domain.Position{X: 9, Y: 9}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	n, err := PatchNodeData(ctx, repo, "fvi", map[string]any{"status": "in-use"})
	require.NoError(t, err)
	assert.Equal(t, "FVI", n.Data["label"])
	assert.Equal(t, "in-use", n.Data["status"])

	n, err = PatchNodeData(ctx, repo, "fqa", map[string]any{"status": "available"})
	require.NoError(t, err)
	assert.Equal(t, "available", n.Data["status"])

	_, err = PatchNodeData(ctx, repo, "ghost", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	g, err := repo.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Position{X: 1, Y: 2}, g.Nodes[0].Position)
	assert.Len(t, g.Edges, 1)
	assert.Len(t, g.Nodes, 2)
}
