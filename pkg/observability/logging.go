package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/proofweave/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			logger.InfoContext(ctx, "workspace_mutation",
				"workspace", e.WorkspaceID,
				"kind", e.Kind,
				"generation", e.Generation,
			)
		},
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.DebugContext(ctx, "run_start", "workspace", e.WorkspaceID, "generation", e.Generation)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			level := slog.LevelInfo
			if e.Err != nil && !isExecutionError(e.Err) {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "run_finish",
				"workspace", e.WorkspaceID,
				"generation", e.Generation,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnRunDiscarded: func(ctx context.Context, e *domain.RunEvent) {
			logger.DebugContext(ctx, "run_discarded", "workspace", e.WorkspaceID, "generation", e.Generation)
		},
		OnReconcile: func(ctx context.Context, e *domain.ReconcileEvent) {
			logger.InfoContext(ctx, "reconciled",
				"workspace", e.WorkspaceID,
				"generation", e.Generation,
				"open_goals", e.OpenGoals,
				"diagnostics", len(e.Diagnostics),
			)
		},
	}
}

func isExecutionError(err error) bool {
	var execErr *domain.ExecutionError
	return errors.As(err, &execErr)
}
