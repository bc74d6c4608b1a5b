package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tilbot/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured record per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEmit: func(ctx context.Context, e *domain.EmitEvent) {
			logger.InfoContext(ctx, "block emitted",
				"session_id", e.SessionID,
				"block_id", e.BlockID,
				"type", e.Message.Type,
				"depth", len(e.Path),
			)
		},
		OnMatch: func(ctx context.Context, e *domain.MatchEvent) {
			logger.InfoContext(ctx, "connector matched",
				"session_id", e.SessionID,
				"block_id", e.BlockID,
				"label", e.Label,
				"target", e.Target,
				"trigger", e.Trigger,
			)
		},
		OnStall: func(ctx context.Context, e *domain.StallEvent) {
			logger.InfoContext(ctx, "no match", "session_id", e.SessionID, "block_id", e.BlockID)
		},
		OnLookup: func(ctx context.Context, e *domain.LookupEvent) {
			logger.DebugContext(ctx, "data lookup",
				"session_id", e.SessionID,
				"kind", e.Kind,
				"table", e.Table,
				"column", e.Column,
				"found", e.Found,
			)
		},
		OnFailure: func(ctx context.Context, e *domain.FailureEvent) {
			logger.ErrorContext(ctx, "session failed", "session_id", e.SessionID, "err", e.Err)
		},
	}
}
