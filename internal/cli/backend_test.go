package cli

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aretw0/proofweave/internal/config"
	"github.com/aretw0/proofweave/internal/logging"
	httpAdapter "github.com/aretw0/proofweave/pkg/adapters/http"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.StoreMemory}
	return cfg
}

func newRuntime(t *testing.T, cfg config.Config) *Runtime {
	t.Helper()
	rt, err := CreateEngine(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func backends(t *testing.T) map[string]Backend {
	local := newRuntime(t, memoryConfig())

	served := newRuntime(t, memoryConfig())
	handler, err := httpAdapter.NewHandler(served.Engine)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return map[string]Backend{
		"local":  &Local{Engine: local.Engine, Direction: domain.DirectionTB},
		"remote": NewRemote(srv.URL + "/"),
	}
}

func TestBackends_ProofScenario(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := b.Script(ctx, "p1")
			require.Error(t, err, "reading a missing session must fail")

			v, err := b.Open(ctx, "p1")
			require.NoError(t, err)
			require.Len(t, v.OpenGoals, 1)

			v, err = b.Load(ctx, "p1", "split-bounds")
			require.NoError(t, err)
			assert.Equal(t, "split-bounds", v.Problem.ID)

			v, err = b.Apply(ctx, "p1", v.OpenGoals[0], "SplitGoal()", false)
			require.NoError(t, err)
			require.Len(t, v.OpenGoals, 2)

			for len(v.OpenGoals) > 0 {
				v, err = b.Apply(ctx, "p1", v.OpenGoals[0], "Linarith()", false)
				require.NoError(t, err)
			}
			assert.True(t, v.Complete)
			require.NotNil(t, v.Outcome)
			assert.True(t, v.Outcome.ProofComplete)

			script, err := b.Script(ctx, "p1")
			require.NoError(t, err)
			assert.Contains(t, script, "p.use(SplitGoal());")

			mmd, err := b.Mermaid(ctx, "p1")
			require.NoError(t, err)
			assert.Contains(t, mmd, "class goal proved;")

			v, err = b.Run(ctx, "p1")
			require.NoError(t, err)
			assert.True(t, v.Outcome.Reconciled)

			var split string
			for _, e := range v.Edges {
				if e.Tactic == "SplitGoal()" {
					split = e.ID
				}
			}
			require.NotEmpty(t, split)
			v, err = b.Remove(ctx, "p1", split)
			require.NoError(t, err)
			assert.Len(t, v.OpenGoals, 1)

			_, err = b.Apply(ctx, "p1", "goal", "Linarith()", false)
			assert.Error(t, err)

			v, err = b.Reset(ctx, "p1")
			require.NoError(t, err)
			assert.Len(t, v.OpenGoals, 1)

			problems, err := b.Problems(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, problems)

			require.NoError(t, b.Delete(ctx, "p1"))
			_, err = b.Mermaid(ctx, "p1")
			assert.Error(t, err)
		})
	}
}

func TestLocal_MapsDomainErrors(t *testing.T) {
	rt := newRuntime(t, memoryConfig())
	b := &Local{Engine: rt.Engine}
	ctx := context.Background()

	_, err := b.Load(ctx, "x", "nope")
	assert.ErrorIs(t, err, domain.ErrProblemNotFound)

	_, err = b.Remove(ctx, "x", "nope")
	assert.ErrorIs(t, err, domain.ErrEdgeNotFound)
}

func TestRemote_ReportsServerErrors(t *testing.T) {
	b := backends(t)["remote"]
	_, err := b.Load(context.Background(), "x", "nope")

	var remoteErr *remoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 404, remoteErr.Status)
	assert.Contains(t, remoteErr.Message, "problem not found")
}

func TestCreateEngine_PersistsAcrossRuntimes(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{config.StoreFile, config.StoreSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store = config.StoreConfig{Backend: backend, Path: filepath.Join(t.TempDir(), "store")}

			first, err := CreateEngine(cfg, logging.NewNop())
			require.NoError(t, err)
			b := &Local{Engine: first.Engine}
			v, err := b.Open(ctx, "kept")
			require.NoError(t, err)
			_, err = b.Apply(ctx, "kept", v.OpenGoals[0], "Linarith()", false)
			require.NoError(t, err)
			require.NoError(t, first.Close())

			second := newRuntime(t, cfg)
			v, err = (&Local{Engine: second.Engine}).Open(ctx, "kept")
			require.NoError(t, err)
			assert.True(t, v.Complete)
		})
	}
}

func TestCreateEngine_Errors(t *testing.T) {
	cfg := memoryConfig()
	cfg.Catalog = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := CreateEngine(cfg, logging.NewNop())
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Store = config.StoreConfig{Backend: config.StoreRedis, Address: "localhost:1", TTL: "soon"}
	_, err = CreateEngine(cfg, logging.NewNop())
	assert.ErrorContains(t, err, "store.ttl")
}
