package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestHooks_LogsEvents(t *testing.T) {
	var buf bytes.Buffer
	hooks := Hooks(NewJSON(&buf, slog.LevelInfo))
	ctx := context.Background()

	hooks.OnToolCall(ctx, &domain.ToolEvent{ToolName: "addCard"})
	assert.Empty(t, buf.String(), "tool_call is logged at debug")

	hooks.OnToolReturn(ctx, &domain.ToolEvent{EventBase: domain.EventBase{SessionID: "s1"}, ToolName: "addCard", IsError: true})
	assert.Contains(t, buf.String(), `"msg":"tool_return"`)
	assert.Contains(t, buf.String(), `"is_error":true`)

	buf.Reset()
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{Step: 2, Error: "stream failed"})
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"err":"stream failed"`)
}
