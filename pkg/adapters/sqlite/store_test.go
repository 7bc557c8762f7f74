package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/proofweave/pkg/adapters/sqlite"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspaces.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := openStore(t)
	ports.RunWorkspaceStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()

	snap := &domain.Snapshot{ID: "ws", Mode: domain.ModeManual}
	require.NoError(t, store.Save(ctx, "ws", snap))
	snap.Mode = domain.ModeAuto
	require.NoError(t, store.Save(ctx, "ws", snap))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "ws")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAuto, loaded.Mode)

	ids, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ws"}, ids)
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("")
	assert.Error(t, err)
}
