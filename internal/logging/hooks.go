package logging

import (
	"context"
	"log/slog"

	"github.com/aretw0/whiteboard/pkg/domain"
)

// Hooks returns lifecycle hooks that log every tool call and turn boundary.
func Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call",
				"session_id", e.SessionID,
				"call_id", e.CallID,
				"tool_name", e.ToolName,
			)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.InfoContext(ctx, "tool_return",
				"session_id", e.SessionID,
				"call_id", e.CallID,
				"tool_name", e.ToolName,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start", "session_id", e.SessionID, "step", e.Step)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"step", e.Step,
				"tool_calls", e.ToolCalls,
				"continued", e.Continued,
			}
			if e.Error != "" {
				logger.WarnContext(ctx, "turn_end", append(attrs, "error", e.Error)...)
				return
			}
			logger.InfoContext(ctx, "turn_end", attrs...)
		},
	}
}
