package runtime

import (
	"log/slog"

	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
)

// Option defines a functional option for configuring a Workspace.
type Option func(*Workspace)

// WithID sets the workspace id reported in events and snapshots.
func WithID(id string) Option {
	return func(w *Workspace) {
		w.id = id
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithEvaluator sets the evaluator runs are sent to. The caller keeps
// ownership and closes it.
func WithEvaluator(ev ports.Evaluator) Option {
	return func(w *Workspace) {
		w.evaluator = ev
		w.ownsEvaluator = false
	}
}

// WithOwnedEvaluator hands the evaluator over to the workspace, which closes it
// on Close when it implements io.Closer.
func WithOwnedEvaluator(ev ports.Evaluator) Option {
	return func(w *Workspace) {
		w.evaluator = ev
		w.ownsEvaluator = true
	}
}

// WithLayout sets the layout adapter and its main axis.
func WithLayout(l ports.Layout, dir domain.Direction) Option {
	return func(w *Workspace) {
		w.layout = l
		w.direction = dir
	}
}

// WithMode sets when the evaluator runs (default: auto).
func WithMode(mode domain.ExecutionMode) Option {
	return func(w *Workspace) {
		w.mode = mode
	}
}

// WithCatalog sets the catalog used to size tactic applications.
func WithCatalog(c *catalog.Catalog) Option {
	return func(w *Workspace) {
		w.catalog = c
	}
}

// WithProblem sets the problem the workspace starts with.
func WithProblem(p domain.Problem) Option {
	return func(w *Workspace) {
		w.problem = p.Clone()
	}
}

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(ids IDGenerator) Option {
	return func(w *Workspace) {
		w.ids = ids
	}
}
