package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("proofweave/runtime")

// Workspace is one proof being edited: a problem, its proof graph and the
// evaluator runs that keep the graph in line with the evaluator.
//
// Every edit runs to completion under the workspace lock and bumps the
// generation counter. In auto mode it also starts an evaluator run for the new
// script on its own goroutine. A run whose generation is no longer the latest
// when it completes is discarded: runs are never cancelled, only ignored.
type Workspace struct {
	mu sync.Mutex

	id        string
	problem   domain.Problem
	store     *GraphStore
	mode      domain.ExecutionMode
	catalog   *catalog.Catalog
	layout    ports.Layout
	direction domain.Direction
	ids       IDGenerator
	logger    *slog.Logger
	hooks     domain.LifecycleHooks

	evaluator     ports.Evaluator
	ownsEvaluator bool

	generation uint64
	outcome    *domain.Outcome
	updatedAt  time.Time
	closed     bool
	runs       sync.WaitGroup
}

// New creates a workspace holding the initial problem and the two-node graph.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		problem: InitialProblem(),
		mode:    domain.ModeAuto,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.ids == nil {
		w.ids = NewUUID
	}
	if w.id == "" {
		w.id = w.ids()
	}
	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.catalog == nil {
		w.catalog = catalog.Default()
	}
	w.logger = w.logger.With("workspace", w.id)
	w.store = NewGraphStore(w.layout, w.direction, w.ids, w.problem.Goal.Expression)
	w.updatedAt = time.Now().UTC()
	return w
}

// ID returns the workspace id.
func (w *Workspace) ID() string {
	return w.id
}

// Nodes returns a copy of the current nodes.
func (w *Workspace) Nodes() []domain.ProofNode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Nodes()
}

// Edges returns a copy of the current edges.
func (w *Workspace) Edges() []domain.TacticEdge {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Edges()
}

// Graph returns a copy of the current graph.
func (w *Workspace) Graph() domain.Graph {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Graph()
}

// Problem returns a copy of the current problem.
func (w *Workspace) Problem() domain.Problem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.problem.Clone()
}

// Mode returns the execution mode.
func (w *Workspace) Mode() domain.ExecutionMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// SetMode switches between auto and manual runs.
func (w *Workspace) SetMode(mode domain.ExecutionMode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = mode
}

// Generation returns the number of the latest edit or run request.
func (w *Workspace) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

// Script generates the evaluator script for the current state.
func (w *Workspace) Script() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return GenerateScript(w.problem, w.store.Graph())
}

// ApplyTactic attaches a tactic to the open leaf nodeID. The number of new
// proof states comes from the catalog.
func (w *Workspace) ApplyTactic(ctx context.Context, nodeID, tactic string, isLemma bool) (Application, error) {
	var app Application
	err := w.commit(ctx, domain.MutationApply, true, func() error {
		next, a, err := ApplyTactic(w.store.Graph(), nodeID, tactic, isLemma, w.catalog.Branches(tactic), w.ids)
		if err != nil {
			return err
		}
		app = a
		w.store.Replace(next.Nodes, next.Edges)
		return nil
	})
	return app, err
}

// RemoveEdge undoes the tactic application edgeID belongs to.
func (w *Workspace) RemoveEdge(ctx context.Context, edgeID string) (Removal, error) {
	var rm Removal
	err := w.commit(ctx, domain.MutationRemove, true, func() error {
		next, r, err := RemoveEdge(w.store.Graph(), edgeID, w.ids)
		if err != nil {
			return err
		}
		rm = r
		w.store.Replace(next.Nodes, next.Edges)
		return nil
	})
	return rm, err
}

// Reset drops every tactic application but keeps the source node.
func (w *Workspace) Reset(ctx context.Context) error {
	return w.commit(ctx, domain.MutationReset, true, func() error {
		w.store.Reset(w.problem.Goal.Expression)
		return nil
	})
}

// LoadProblem replaces the problem and starts over from a fresh graph.
func (w *Workspace) LoadProblem(ctx context.Context, p domain.Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return w.commit(ctx, domain.MutationProblem, true, func() error {
		w.problem = p.Clone()
		w.store.ResetToInitial(p.Goal.Expression)
		return nil
	})
}

// SetVariables replaces the variable list.
func (w *Workspace) SetVariables(ctx context.Context, vars []domain.Variable) error {
	return w.editProblem(ctx, func(p *domain.Problem) {
		p.Variables = append([]domain.Variable(nil), vars...)
	})
}

// AddVariables appends to the variable list.
func (w *Workspace) AddVariables(ctx context.Context, vars ...domain.Variable) error {
	return w.editProblem(ctx, func(p *domain.Problem) {
		p.Variables = append(p.Variables, vars...)
	})
}

// SetHypotheses replaces the hypothesis list.
func (w *Workspace) SetHypotheses(ctx context.Context, hyps []domain.Hypothesis) error {
	return w.editProblem(ctx, func(p *domain.Problem) {
		p.Hypotheses = append([]domain.Hypothesis(nil), hyps...)
	})
}

// AddHypothesis appends one hypothesis.
func (w *Workspace) AddHypothesis(ctx context.Context, h domain.Hypothesis) error {
	return w.editProblem(ctx, func(p *domain.Problem) {
		p.Hypotheses = append(p.Hypotheses, h)
	})
}

// SetGoal replaces the goal and relabels the goal sentinel.
func (w *Workspace) SetGoal(ctx context.Context, goal domain.Goal) error {
	return w.editProblem(ctx, func(p *domain.Problem) {
		p.Goal = goal
	})
}

func (w *Workspace) editProblem(ctx context.Context, edit func(*domain.Problem)) error {
	return w.commit(ctx, domain.MutationProblem, true, func() error {
		p := w.problem.Clone()
		edit(&p)
		if err := p.Validate(); err != nil {
			return err
		}
		w.problem = p
		w.store.SetGoalLabel(p.Goal.Expression)
		return nil
	})
}

// FixLayout lays the graph out again. It neither bumps the generation nor runs
// the evaluator.
func (w *Workspace) FixLayout(ctx context.Context) error {
	return w.commit(ctx, domain.MutationLayout, false, func() error {
		w.store.Relayout()
		return nil
	})
}

// Annotate sets the note of a node. Notes survive reconciliation as long as
// the evaluator keeps reporting the node.
func (w *Workspace) Annotate(ctx context.Context, nodeID, note string) error {
	return w.commit(ctx, domain.MutationNote, false, func() error {
		g := w.store.Graph()
		for i := range g.Nodes {
			if g.Nodes[i].ID == nodeID {
				g.Nodes[i].Note = note
				w.store.Replace(g.Nodes, g.Edges)
				return nil
			}
		}
		return fmt.Errorf("annotate %s: %w", nodeID, domain.ErrNodeNotFound)
	})
}

// Restore replaces the whole workspace state with a snapshot.
func (w *Workspace) Restore(ctx context.Context, snap *domain.Snapshot) error {
	if err := snap.Problem.Validate(); err != nil {
		return err
	}
	if err := domain.CheckInvariants(snap.Graph); err != nil {
		return fmt.Errorf("restore %s: %w", snap.ID, err)
	}
	return w.commit(ctx, domain.MutationRestore, true, func() error {
		w.problem = snap.Problem.Clone()
		if snap.Mode != "" {
			w.mode = snap.Mode
		}
		w.store.Replace(snap.Graph.Nodes, snap.Graph.Edges)
		return nil
	})
}

// Snapshot returns the persistable state of the workspace.
func (w *Workspace) Snapshot() *domain.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &domain.Snapshot{
		ID:        w.id,
		Problem:   w.problem.Clone(),
		Graph:     w.store.Graph(),
		Mode:      w.mode,
		UpdatedAt: w.updatedAt,
	}
}

// Run sends the generated script to the evaluator and reconciles the reply.
// It returns the generation of the run without waiting for it.
func (w *Workspace) Run(ctx context.Context) (uint64, error) {
	return w.request(ctx, "", true)
}

// RunScript sends a hand-edited script to the evaluator. Its outcome is
// recorded but never reconciled into the graph.
func (w *Workspace) RunScript(ctx context.Context, script string) (uint64, error) {
	return w.request(ctx, script, false)
}

// Outcome returns the latest accepted run outcome.
func (w *Workspace) Outcome() (domain.Outcome, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.outcome == nil {
		return domain.Outcome{}, false
	}
	return *w.outcome, true
}

// Wait blocks until every started run has completed.
func (w *Workspace) Wait() {
	w.runs.Wait()
}

// Close waits for in-flight runs and closes an owned evaluator.
func (w *Workspace) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.runs.Wait()
	if c, ok := w.evaluator.(io.Closer); ok && w.ownsEvaluator {
		return c.Close()
	}
	return nil
}

// commit runs mutate under the lock, then fires hooks and, in auto mode, starts
// a run for the new state.
func (w *Workspace) commit(ctx context.Context, kind domain.MutationKind, bump bool, mutate func() error) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.ErrWorkspaceClosed
	}
	before := w.store.Graph()
	if err := mutate(); err != nil {
		w.mu.Unlock()
		return err
	}
	after := w.store.Graph()
	w.updatedAt = time.Now().UTC()
	if bump {
		w.generation++
	}
	gen := w.generation

	var script string
	launch := bump && w.mode == domain.ModeAuto && w.evaluator != nil
	if launch {
		script = GenerateScript(w.problem, after)
		w.runs.Add(1)
	}
	w.mu.Unlock()

	w.logger.Debug("workspace mutated", "kind", kind, "generation", gen)
	if w.hooks.OnMutation != nil {
		w.hooks.OnMutation(ctx, &domain.MutationEvent{
			Timestamp:   time.Now(),
			WorkspaceID: w.id,
			Kind:        kind,
			Generation:  gen,
		})
	}
	w.graphChanged(ctx, &before, &after)

	if launch {
		go w.execute(context.WithoutCancel(ctx), gen, script, true)
	}
	return nil
}

func (w *Workspace) request(ctx context.Context, script string, reconcile bool) (uint64, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return 0, domain.ErrWorkspaceClosed
	}
	if w.evaluator == nil {
		w.mu.Unlock()
		return 0, domain.ErrNoEvaluator
	}
	w.generation++
	gen := w.generation
	if reconcile {
		script = GenerateScript(w.problem, w.store.Graph())
	}
	w.runs.Add(1)
	w.mu.Unlock()

	go w.execute(context.WithoutCancel(ctx), gen, script, reconcile)
	return gen, nil
}

func (w *Workspace) execute(ctx context.Context, gen uint64, script string, reconcile bool) {
	defer w.runs.Done()

	ctx, span := tracer.Start(ctx, "workspace.run", trace.WithAttributes(
		attribute.String("workspace.id", w.id),
		attribute.Int64("generation", int64(gen)),
		attribute.Bool("reconcile", reconcile),
	))
	defer span.End()

	logger := w.logger.With("generation", gen)
	if w.hooks.OnRunStart != nil {
		w.hooks.OnRunStart(ctx, &domain.RunEvent{Timestamp: time.Now(), WorkspaceID: w.id, Generation: gen})
	}

	start := time.Now()
	res, err := w.evaluator.Execute(ctx, script)
	finished := &domain.RunEvent{
		Timestamp:   time.Now(),
		WorkspaceID: w.id,
		Generation:  gen,
		Duration:    time.Since(start),
		Err:         err,
	}

	w.mu.Lock()
	if gen != w.generation {
		latest := w.generation
		w.mu.Unlock()
		logger.Debug("discarding stale run", "latest", latest)
		span.SetAttributes(attribute.Bool("discarded", true))
		if w.hooks.OnRunDiscarded != nil {
			w.hooks.OnRunDiscarded(ctx, finished)
		}
		return
	}

	outcome := domain.Outcome{Generation: gen, Script: script}
	var (
		before, after *domain.Graph
		report        ReconcileReport
	)
	if err != nil {
		outcome.Error = err.Error()
		var execErr *domain.ExecutionError
		if errors.As(err, &execErr) {
			outcome.Console = execErr.Console
		}
	} else {
		outcome.FinalValue = res.FinalValue
		outcome.Console = res.Console
		outcome.ProofComplete = res.Tree.ProofComplete
		if reconcile {
			prev := w.store.Graph()
			next, r := Reconcile(prev, res.Tree, w.problem.Goal.Expression, w.ids)
			w.store.Replace(next.Nodes, next.Edges)
			cur := w.store.Graph()
			before, after, report = &prev, &cur, r
			outcome.Reconciled = true
			w.updatedAt = time.Now().UTC()
		}
	}
	w.outcome = &outcome
	w.mu.Unlock()

	if err != nil {
		var execErr *domain.ExecutionError
		if errors.As(err, &execErr) {
			logger.Info("evaluator reported an error", "err", err)
		} else {
			logger.Error("evaluator run failed", "err", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		logger.Debug("run complete", "duration", finished.Duration, "proof_complete", outcome.ProofComplete)
	}
	if w.hooks.OnRunFinish != nil {
		w.hooks.OnRunFinish(ctx, finished)
	}

	if after == nil {
		return
	}
	diags := make([]string, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		logger.Warn("reconciliation fell back to evaluator label", "source", d.Source, "target", d.Target, "label", d.Label, "reason", d.Reason)
		diags = append(diags, d.String())
	}
	if w.hooks.OnReconcile != nil {
		w.hooks.OnReconcile(ctx, &domain.ReconcileEvent{
			Timestamp:   time.Now(),
			WorkspaceID: w.id,
			Generation:  gen,
			Diagnostics: diags,
			OpenGoals:   len(after.OpenEdges()),
		})
	}
	w.graphChanged(ctx, before, after)
}

func (w *Workspace) graphChanged(ctx context.Context, before, after *domain.Graph) {
	if w.hooks.OnGraphChange == nil {
		return
	}
	if diff := domain.Diff(before, after); diff != nil {
		w.hooks.OnGraphChange(ctx, &domain.GraphEvent{WorkspaceID: w.id, Diff: diff})
	}
}
