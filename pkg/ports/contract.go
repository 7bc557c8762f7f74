package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(id string) *domain.Snapshot {
	return &domain.Snapshot{
		ID: id,
		Problem: domain.Problem{
			Variables:  []domain.Variable{{Name: "x", Type: "real"}},
			Hypotheses: []domain.Hypothesis{{Name: "h1", Expression: "x > 1"}},
			Goal:       domain.Goal{Expression: "x > 0"},
		},
		Graph: domain.Graph{
			Nodes: []domain.ProofNode{
				{ID: "root", Type: domain.NodeSource, Label: "root", Note: "keep me"},
				domain.NewGoalNode("x > 0"),
			},
			Edges: []domain.TacticEdge{domain.NewSorryEdge("e1", "root", "r1")},
		},
		Mode:      domain.ModeManual,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// RunWorkspaceStoreContract runs a suite of tests to verify that a WorkspaceStore
// implementation adheres to the defined interface contract.
func RunWorkspaceStoreContract(t *testing.T, store WorkspaceStore) {
	ctx := context.Background()
	id := "contract-test-workspace-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(id)

		err := store.Save(ctx, id, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Problem, loaded.Problem)
		assert.Equal(t, snap.Graph, loaded.Graph)
		assert.Equal(t, snap.Mode, loaded.Mode)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, contractSnapshot(id)))
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		loaded.Graph.Nodes[0].Note = "mutated"

		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "keep me", again.Graph.Nodes[0].Note)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, id, contractSnapshot(id))
		require.NoError(t, err)

		err = store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound, "Load after Delete should return ErrWorkspaceNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, contractSnapshot(id1))
		_ = store.Save(ctx, id2, contractSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
