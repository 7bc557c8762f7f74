package domain

import (
	"context"
	"time"
)

// MutationKind names a user edit of the workspace.
type MutationKind string

const (
	MutationApply   MutationKind = "apply"
	MutationRemove  MutationKind = "remove"
	MutationReset   MutationKind = "reset"
	MutationProblem MutationKind = "problem"
	MutationLayout  MutationKind = "layout"
	MutationNote    MutationKind = "note"
	MutationRestore MutationKind = "restore"
)

// MutationEvent is emitted after an edit has been committed.
type MutationEvent struct {
	Timestamp   time.Time    `json:"timestamp"`
	WorkspaceID string       `json:"workspace_id"`
	Kind        MutationKind `json:"kind"`
	Generation  uint64       `json:"generation"`
}

// RunEvent describes an evaluator execution.
type RunEvent struct {
	Timestamp   time.Time     `json:"timestamp"`
	WorkspaceID string        `json:"workspace_id"`
	Generation  uint64        `json:"generation"`
	Duration    time.Duration `json:"duration,omitempty"`
	Err         error         `json:"-"`
}

// ReconcileEvent is emitted after an evaluator tree has been merged into the graph.
type ReconcileEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	WorkspaceID string    `json:"workspace_id"`
	Generation  uint64    `json:"generation"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	OpenGoals   int       `json:"open_goals"`
}

// GraphEvent carries the changes a committed graph brought.
type GraphEvent struct {
	WorkspaceID string     `json:"workspace_id"`
	Diff        *GraphDiff `json:"diff"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks are called outside the workspace lock.
type LifecycleHooks struct {
	OnMutation     func(context.Context, *MutationEvent)
	OnRunStart     func(context.Context, *RunEvent)
	OnRunFinish    func(context.Context, *RunEvent)
	OnRunDiscarded func(context.Context, *RunEvent)
	OnReconcile    func(context.Context, *ReconcileEvent)
	OnGraphChange  func(context.Context, *GraphEvent)
}

// MergeHooks returns hooks that call every non-nil callback of each input in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		out.OnMutation = chain(out.OnMutation, h.OnMutation)
		out.OnRunStart = chain(out.OnRunStart, h.OnRunStart)
		out.OnRunFinish = chain(out.OnRunFinish, h.OnRunFinish)
		out.OnRunDiscarded = chain(out.OnRunDiscarded, h.OnRunDiscarded)
		out.OnReconcile = chain(out.OnReconcile, h.OnReconcile)
		out.OnGraphChange = chain(out.OnGraphChange, h.OnGraphChange)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
