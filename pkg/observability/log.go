package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/mazecode/pkg/domain"
)

// LogHooks returns lifecycle hooks that write engine activity to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "run_id", e.RunID)
		},
		OnMoveSettled: func(ctx context.Context, e *domain.MoveEvent) {
			logger.DebugContext(ctx, "move_settled",
				"run_id", e.RunID,
				"program", e.Program,
				"index", e.Index,
				"kind", e.Kind,
				"outcome", e.Outcome,
				"agent", e.Agent.Position.String(),
			)
		},
		OnBranchEnter: func(ctx context.Context, e *domain.BranchEvent) {
			logger.DebugContext(ctx, "branch_enter", "run_id", e.RunID, "callee", e.Callee, "depth", e.Depth)
		},
		OnBranchReturn: func(ctx context.Context, e *domain.BranchEvent) {
			logger.DebugContext(ctx, "branch_return", "run_id", e.RunID, "callee", e.Callee, "depth", e.Depth)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "run_end", "run_id", e.RunID, "status", e.Status, "steps", e.Steps, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "run_end", "run_id", e.RunID, "status", e.Status, "steps", e.Steps)
		},
	}
}
