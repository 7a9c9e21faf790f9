package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"
	EventTurnStart  EventType = "turn_start"
	EventTurnEnd    EventType = "turn_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// ToolEvent represents a tool dispatch.
type ToolEvent struct {
	EventBase
	CallID   string        `json:"call_id"`
	ToolName string        `json:"tool_name"`
	Input    any           `json:"input,omitempty"`
	Output   any           `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// TurnEvent represents the start or end of one model request.
type TurnEvent struct {
	EventBase
	Step      int    `json:"step"`
	ToolCalls int    `json:"tool_calls,omitempty"`
	Continued bool   `json:"continued,omitempty"`
	Error     string `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
	OnTurnStart  func(context.Context, *TurnEvent)
	OnTurnEnd    func(context.Context, *TurnEvent)
}

// MergeHooks combines several hook sets; callbacks run in argument order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range sets {
		merged.OnToolCall = chain(merged.OnToolCall, h.OnToolCall)
		merged.OnToolReturn = chain(merged.OnToolReturn, h.OnToolReturn)
		merged.OnTurnStart = chain(merged.OnTurnStart, h.OnTurnStart)
		merged.OnTurnEnd = chain(merged.OnTurnEnd, h.OnTurnEnd)
	}
	return merged
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
