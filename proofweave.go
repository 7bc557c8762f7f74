package proofweave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/internal/runtime"
	loamAdapter "github.com/aretw0/proofweave/pkg/adapters/loam"
	"github.com/aretw0/proofweave/pkg/adapters/memory"
	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/layout"
	"github.com/aretw0/proofweave/pkg/ports"
	"github.com/aretw0/proofweave/pkg/session"
)

// Workspace is one proof being edited. See New and Engine.NewWorkspace.
type Workspace = runtime.Workspace

// Engine is the high-level entry point for the proofweave library.
// It holds everything workspaces share: the evaluator handle, the tactic
// catalog, the layout, the problem library and the session manager.
type Engine struct {
	evaluator     ports.Evaluator
	ownsEvaluator bool
	library       ports.ProblemLibrary
	problemsDir   string
	catalog       *catalog.Catalog
	layout        ports.Layout
	direction     domain.Direction
	mode          domain.ExecutionMode
	store         ports.WorkspaceStore
	locker        ports.DistributedLocker
	hooks         domain.LifecycleHooks
	onDelete      []func(id string)
	logger        *slog.Logger

	sessions *session.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks for every workspace.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithSessionDeleted registers fn to run after a session has been deleted.
func WithSessionDeleted(fn func(id string)) Option {
	return func(e *Engine) {
		e.onDelete = append(e.onDelete, fn)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEvaluator sets the evaluator workspaces run against. The caller keeps
// ownership and closes it.
func WithEvaluator(ev ports.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
		e.ownsEvaluator = false
	}
}

// WithOwnedEvaluator hands the evaluator to the engine, which closes it on Close.
func WithOwnedEvaluator(ev ports.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
		e.ownsEvaluator = true
	}
}

// WithLibrary injects a custom problem library, replacing the built-in presets.
func WithLibrary(lib ports.ProblemLibrary) Option {
	return func(e *Engine) {
		e.library = lib
	}
}

// WithProblemsDir reads problems from a Loam repository at dir.
func WithProblemsDir(dir string) Option {
	return func(e *Engine) {
		e.problemsDir = dir
	}
}

// WithCatalog replaces the built-in tactic catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLayout sets the layout adapter and its main axis.
func WithLayout(l ports.Layout, dir domain.Direction) Option {
	return func(e *Engine) {
		e.layout = l
		e.direction = dir
	}
}

// WithMode sets when workspaces run the evaluator (default: auto).
func WithMode(mode domain.ExecutionMode) Option {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithStore persists session snapshots.
func WithStore(store ports.WorkspaceStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serialises session edits across replicas sharing a store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// New initializes an Engine. Without options it uses the preset problems, the
// built-in catalog, the layered layout and no evaluator.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		catalog:   catalog.Default(),
		layout:    layout.New(),
		direction: domain.DirectionTB,
		mode:      domain.ModeAuto,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.library == nil {
		if eng.problemsDir != "" {
			lib, err := loamAdapter.Open(eng.problemsDir)
			if err != nil {
				return nil, fmt.Errorf("failed to open problem library: %w", err)
			}
			eng.library = lib
		} else {
			eng.library = memory.NewPresetLibrary()
		}
	}

	sessOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.store != nil {
		sessOpts = append(sessOpts, session.WithStore(eng.store))
	}
	if eng.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(eng.locker))
	}
	for _, fn := range eng.onDelete {
		sessOpts = append(sessOpts, session.WithOnDelete(fn))
	}
	eng.sessions = session.NewManager(func(id string, hooks domain.LifecycleHooks) *Workspace {
		return eng.newWorkspace(id, hooks)
	}, sessOpts...)

	return eng, nil
}

// NewWorkspace creates a standalone workspace outside the session manager.
// An empty id gets a generated one.
func (e *Engine) NewWorkspace(id string, opts ...runtime.Option) *Workspace {
	return e.newWorkspace(id, domain.LifecycleHooks{}, opts...)
}

func (e *Engine) newWorkspace(id string, hooks domain.LifecycleHooks, extra ...runtime.Option) *Workspace {
	opts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(domain.MergeHooks(e.hooks, hooks)),
		runtime.WithLayout(e.layout, e.direction),
		runtime.WithMode(e.mode),
		runtime.WithCatalog(e.catalog),
	}
	if id != "" {
		opts = append(opts, runtime.WithID(id))
	}
	if e.evaluator != nil {
		opts = append(opts, runtime.WithEvaluator(e.evaluator))
	}
	return runtime.New(append(opts, extra...)...)
}

// Sessions returns the manager holding the engine's named workspaces.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Catalog returns the tactic catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Library returns the problem library.
func (e *Engine) Library() ports.ProblemLibrary {
	return e.library
}

// Problems lists the problems of the library.
func (e *Engine) Problems(ctx context.Context) ([]domain.Problem, error) {
	return e.library.List(ctx)
}

// LoadProblem replaces the problem of w with the library problem id and
// resets its proof.
func (e *Engine) LoadProblem(ctx context.Context, w *Workspace, id string) error {
	p, err := e.library.Get(ctx, id)
	if err != nil {
		return err
	}
	return w.LoadProblem(ctx, p)
}

// Close closes every session workspace, then the evaluator when the engine owns it.
func (e *Engine) Close() error {
	err := e.sessions.Close()
	if c, ok := e.evaluator.(io.Closer); ok && e.ownsEvaluator {
		err = errors.Join(err, c.Close())
	}
	return err
}
