package cli

import (
	"context"

	"github.com/aretw0/proofweave"
	"github.com/aretw0/proofweave/internal/presentation/graph"
	httpAdapter "github.com/aretw0/proofweave/pkg/adapters/http"
	"github.com/aretw0/proofweave/pkg/domain"
)

// View is the state of a session as the CLI prints it.
type View = httpAdapter.SessionView

// Backend is where the CLI commands send their edits: the local session store
// or a running server. Every edit waits for the evaluator run it starts.
type Backend interface {
	Open(ctx context.Context, id string) (View, error)
	Apply(ctx context.Context, id, nodeID, tactic string, lemma bool) (View, error)
	Remove(ctx context.Context, id, edgeID string) (View, error)
	Reset(ctx context.Context, id string) (View, error)
	Load(ctx context.Context, id, problemID string) (View, error)
	Run(ctx context.Context, id string) (View, error)
	Script(ctx context.Context, id string) (string, error)
	Mermaid(ctx context.Context, id string) (string, error)
	Problems(ctx context.Context) ([]domain.Problem, error)
	Delete(ctx context.Context, id string) error
}

// Local runs commands against an in-process engine and its session store.
type Local struct {
	Engine    *proofweave.Engine
	Direction domain.Direction
}

var _ Backend = (*Local)(nil)

func (l *Local) edit(ctx context.Context, id string, fn func(context.Context, *proofweave.Workspace) error) (View, error) {
	var view View
	err := l.Engine.Sessions().Update(ctx, id, func(ctx context.Context, w *proofweave.Workspace) error {
		if err := fn(ctx, w); err != nil {
			return err
		}
		w.Wait()
		view = httpAdapter.NewSessionView(w)
		return nil
	})
	return view, err
}

func (l *Local) Open(ctx context.Context, id string) (View, error) {
	w, err := l.Engine.Sessions().Open(ctx, id)
	if err != nil {
		return View{}, err
	}
	return httpAdapter.NewSessionView(w), nil
}

func (l *Local) Apply(ctx context.Context, id, nodeID, tactic string, lemma bool) (View, error) {
	return l.edit(ctx, id, func(ctx context.Context, w *proofweave.Workspace) error {
		_, err := w.ApplyTactic(ctx, nodeID, tactic, lemma)
		return err
	})
}

func (l *Local) Remove(ctx context.Context, id, edgeID string) (View, error) {
	return l.edit(ctx, id, func(ctx context.Context, w *proofweave.Workspace) error {
		_, err := w.RemoveEdge(ctx, edgeID)
		return err
	})
}

func (l *Local) Reset(ctx context.Context, id string) (View, error) {
	return l.edit(ctx, id, func(ctx context.Context, w *proofweave.Workspace) error {
		return w.Reset(ctx)
	})
}

func (l *Local) Load(ctx context.Context, id, problemID string) (View, error) {
	p, err := l.Engine.Library().Get(ctx, problemID)
	if err != nil {
		return View{}, err
	}
	return l.edit(ctx, id, func(ctx context.Context, w *proofweave.Workspace) error {
		return w.LoadProblem(ctx, p)
	})
}

func (l *Local) Run(ctx context.Context, id string) (View, error) {
	return l.edit(ctx, id, func(ctx context.Context, w *proofweave.Workspace) error {
		_, err := w.Run(ctx)
		return err
	})
}

func (l *Local) Script(ctx context.Context, id string) (string, error) {
	w, err := l.Engine.Sessions().Get(ctx, id)
	if err != nil {
		return "", err
	}
	return w.Script(), nil
}

func (l *Local) Mermaid(ctx context.Context, id string) (string, error) {
	w, err := l.Engine.Sessions().Get(ctx, id)
	if err != nil {
		return "", err
	}
	return graph.GenerateMermaid(w.Graph(), l.Direction, &graph.GraphOverlay{Notes: true}), nil
}

func (l *Local) Problems(ctx context.Context) ([]domain.Problem, error) {
	return l.Engine.Problems(ctx)
}

func (l *Local) Delete(ctx context.Context, id string) error {
	return l.Engine.Sessions().Delete(ctx, id)
}
