package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/proofweave"
	"github.com/aretw0/proofweave/internal/config"
	"github.com/aretw0/proofweave/pkg/adapters/file"
	"github.com/aretw0/proofweave/pkg/adapters/memory"
	"github.com/aretw0/proofweave/pkg/adapters/process"
	"github.com/aretw0/proofweave/pkg/adapters/redis"
	"github.com/aretw0/proofweave/pkg/adapters/sqlite"
	"github.com/aretw0/proofweave/pkg/adapters/starlark"
	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/layout"
	"github.com/aretw0/proofweave/pkg/observability"
	"github.com/aretw0/proofweave/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Runtime is an Engine wired from a configuration, with the resources it
// must release.
type Runtime struct {
	Engine   *proofweave.Engine
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []io.Closer
}

// Close closes the engine, then the store.
func (r *Runtime) Close() error {
	errs := []error{r.Engine.Close()}
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// CreateEngine initializes a proofweave engine from cfg. Extra options are
// applied last, e.g. the SSE hooks of the HTTP server.
func CreateEngine(cfg config.Config, logger *slog.Logger, extra ...proofweave.Option) (*Runtime, error) {
	rt := &Runtime{Registry: prometheus.NewRegistry()}
	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := observability.NewMetrics(rt.Registry)
	if err != nil {
		return nil, err
	}
	rt.Metrics = metrics

	cat := catalog.Default()
	if cfg.Catalog != "" {
		if cat, err = catalog.Load(cfg.Catalog); err != nil {
			return nil, fmt.Errorf("error loading catalog: %w", err)
		}
	}

	opts := []proofweave.Option{
		proofweave.WithLogger(logger),
		proofweave.WithLifecycleHooks(observability.LogHooks(logger)),
		proofweave.WithLifecycleHooks(metrics.Hooks()),
		proofweave.WithSessionDeleted(metrics.Forget),
		proofweave.WithCatalog(cat),
		proofweave.WithMode(cfg.Mode),
		proofweave.WithOwnedEvaluator(createEvaluator(cfg.Evaluator, cat, logger)),
		proofweave.WithLayout(layout.New(), cfg.Direction),
	}
	if cfg.ProblemsDir != "" {
		opts = append(opts, proofweave.WithProblemsDir(cfg.ProblemsDir))
	}

	store, locker, closer, err := createStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}
	opts = append(opts, proofweave.WithStore(store))
	if locker != nil {
		opts = append(opts, proofweave.WithLocker(locker))
	}

	eng, err := proofweave.New(append(opts, extra...)...)
	if err != nil {
		for _, c := range rt.closers {
			_ = c.Close()
		}
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = eng
	return rt, nil
}

func createEvaluator(cfg config.EvaluatorConfig, cat *catalog.Catalog, logger *slog.Logger) ports.Evaluator {
	if cfg.Kind == config.EvaluatorProcess {
		return process.New(cfg.Config, process.WithLogger(logger))
	}
	return starlark.New(starlark.WithCatalog(cat), starlark.WithLogger(logger))
}

func createStore(cfg config.StoreConfig) (ports.WorkspaceStore, ports.DistributedLocker, io.Closer, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil, nil
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.TTL != "" {
			ttl, err := time.ParseDuration(cfg.TTL)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("invalid store.ttl: %w", err)
			}
			opts = append(opts, redis.WithTTL(ttl))
		}
		store := redis.New(cfg.Address, cfg.Password, cfg.DB, opts...)
		return store, redis.NewLocker(store.Client(), "proofweave:"), store, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, store, nil
	default:
		return file.New(cfg.Path), nil, nil, nil
	}
}
