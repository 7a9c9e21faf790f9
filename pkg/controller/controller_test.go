package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/whiteboard/pkg/board"
	"github.com/aretw0/whiteboard/pkg/controller"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/registry"
	"github.com/aretw0/whiteboard/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func available(id, name, input string) stream.ToolInputAvailable {
	return stream.ToolInputAvailable{CallID: id, ToolName: name, Input: json.RawMessage(input)}
}

// run feeds events through a single turn and returns the finished message.
func run(t *testing.T, c *controller.Controller, events ...stream.Event) domain.Message {
	t.Helper()
	ctx := context.Background()
	c.BeginTurn(domain.Message{ID: "m1"})
	for _, ev := range events {
		_ = c.Handle(ctx, ev)
	}
	msg, err := c.EndTurn()
	require.NoError(t, err)
	return msg
}

func newController(opts ...controller.Option) (*controller.Controller, *board.Board) {
	b := board.New()
	return controller.New(b, registry.Default(), opts...), b
}

func TestHandle_AddThenMoveInOneMessage(t *testing.T) {
	c, b := newController()

	msg := run(t, c,
		available("1", registry.NameAddCard, `{"id":"a","color":"red","text":"Alice","cluster":"Team"}`),
		available("2", registry.NameUpdateCard, `{"id":"a","cluster":"Sales"}`),
	)

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		assert.Equal(t, domain.CallOutputAvailable, call.State, call.ID)
	}

	snap := b.Snapshot()
	require.Len(t, snap.Clusters, 1)
	assert.Equal(t, "Sales", snap.Clusters[0].Name)
	assert.Equal(t, "a", snap.Clusters[0].Cards[0].ID)
}

func TestHandle_AddThenRemoveLeavesEmptyBoard(t *testing.T) {
	c, b := newController()

	run(t, c,
		available("1", registry.NameAddCard, `{"id":"a","color":"red","text":"Alice"}`),
		available("2", registry.NameRemoveCard, `{"id":"a"}`),
	)

	assert.Empty(t, b.Snapshot().Clusters)
}

func TestHandle_OutputIsSnapshotJSON(t *testing.T) {
	c, b := newController()

	msg := run(t, c, available("1", registry.NameAddCard, `{"id":"a","color":"green","text":"x"}`))

	want, err := b.Snapshot().JSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(msg.ToolCalls()[0].Output))
	assert.JSONEq(t, `{"clusters":[{"name":"default","cards":[{"id":"a","color":"green","text":"x","tag":null}]}],"caption":""}`,
		string(msg.ToolCalls()[0].Output))
}

func TestHandle_InvalidInputDoesNotAbortSiblings(t *testing.T) {
	c, b := newController()

	msg := run(t, c,
		available("1", registry.NameAddCard, `{"id":"a","color":"purple","text":"x"}`),
		available("2", registry.NameAddCard, `{"id":"b","color":"red","text":"y"}`),
	)

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.CallOutputError, calls[0].State)
	assert.Contains(t, calls[0].ErrorText, domain.ErrInvalidInput.Error())
	assert.Equal(t, domain.CallOutputAvailable, calls[1].State)

	_, _, ok := b.Snapshot().FindCard("b")
	assert.True(t, ok)
}

func TestHandle_DuplicateIDIsCallError(t *testing.T) {
	c, b := newController()

	msg := run(t, c,
		available("1", registry.NameAddCard, `{"id":"a","color":"red","text":"x"}`),
		available("2", registry.NameAddCard, `{"id":"a","color":"blue","text":"y"}`),
	)

	calls := msg.ToolCalls()
	assert.Equal(t, domain.CallOutputError, calls[1].State)
	assert.Contains(t, calls[1].ErrorText, domain.ErrDuplicateID.Error())
	assert.Equal(t, 1, b.Snapshot().CardCount())
}

func TestHandle_ExactlyOnce(t *testing.T) {
	var dispatches int
	c, b := newController(controller.WithHooks(domain.LifecycleHooks{
		OnToolCall: func(context.Context, *domain.ToolEvent) { dispatches++ },
	}))

	add := available("1", registry.NameAddCard, `{"id":"a","color":"red","text":"x"}`)
	msg := run(t, c, add, add, stream.ToolInputDelta{CallID: "1", Delta: "late"})

	assert.Equal(t, 1, dispatches)
	assert.Equal(t, 1, b.Snapshot().CardCount())
	require.Len(t, msg.ToolCalls(), 1)
	assert.Equal(t, domain.CallOutputAvailable, msg.ToolCalls()[0].State)
	assert.Empty(t, msg.ToolCalls()[0].InputText)

	// A redelivery in a later turn is ignored as well.
	again := run(t, c, add)
	assert.Empty(t, again.ToolCalls())
	assert.Equal(t, 1, dispatches)
}

func TestHandle_RememberRestoredTranscript(t *testing.T) {
	var dispatches int
	c, _ := newController(controller.WithHooks(domain.LifecycleHooks{
		OnToolCall: func(context.Context, *domain.ToolEvent) { dispatches++ },
	}))

	c.Remember(domain.Transcript{{
		ID:   "old",
		Role: domain.RoleAssistant,
		Parts: []domain.Part{{Type: domain.PartTool, Tool: &domain.ToolCall{
			ID: "1", Name: registry.NameClearWhiteboard, State: domain.CallOutputAvailable,
		}}},
	}})

	run(t, c, available("1", registry.NameClearWhiteboard, `{}`))
	assert.Zero(t, dispatches)
}

func TestHandle_StreamingInput(t *testing.T) {
	c, b := newController()
	ctx := context.Background()

	c.BeginTurn(domain.Message{ID: "m1"})
	require.NoError(t, c.Handle(ctx, stream.ToolInputStart{CallID: "1", ToolName: registry.NameAddCard}))
	require.NoError(t, c.Handle(ctx, stream.ToolInputDelta{CallID: "1", Delta: `{"id":"a",`}))

	pending, ok := c.Pending()
	require.True(t, ok)
	call := pending.ToolCalls()[0]
	assert.Equal(t, domain.CallInputStreaming, call.State)
	assert.Equal(t, `{"id":"a",`, call.InputText)
	assert.Zero(t, b.Snapshot().CardCount(), "streaming input must not execute")

	require.NoError(t, c.Handle(ctx, stream.ToolInputDelta{CallID: "1", Delta: `"color":"red","text":"x"}`}))
	require.NoError(t, c.Handle(ctx, stream.ToolInputAvailable{CallID: "1", ToolName: registry.NameAddCard}))

	msg, err := c.EndTurn()
	require.NoError(t, err)
	assert.Equal(t, domain.CallOutputAvailable, msg.ToolCalls()[0].State)
	assert.Equal(t, 1, b.Snapshot().CardCount())
}

func TestEndTurn_IncompleteInputIsError(t *testing.T) {
	c, b := newController()

	msg := run(t, c,
		stream.ToolInputStart{CallID: "1", ToolName: registry.NameClearWhiteboard},
		stream.Finish{Reason: "stop"},
	)

	call := msg.ToolCalls()[0]
	assert.Equal(t, domain.CallOutputError, call.State)
	assert.Equal(t, "input incomplete", call.ErrorText)
	assert.Empty(t, b.Snapshot().Clusters)
}

func TestHandle_TextMerging(t *testing.T) {
	c, _ := newController()

	msg := run(t, c,
		stream.TextDelta{Text: "Adding "},
		stream.TextDelta{Text: "Alice."},
		available("1", registry.NameGetWhiteboard, `{}`),
		stream.TextDelta{Text: "Done."},
	)

	require.Len(t, msg.Parts, 3)
	assert.Equal(t, "Adding Alice.", msg.Parts[0].Text)
	assert.Equal(t, domain.PartTool, msg.Parts[1].Type)
	assert.Equal(t, "Done.", msg.Parts[2].Text)
	assert.Equal(t, domain.RoleAssistant, msg.Role)
}

func TestHandle_UnknownTool(t *testing.T) {
	c, _ := newController()

	msg := run(t, c, available("1", "formatDisk", `{}`))

	call := msg.ToolCalls()[0]
	assert.Equal(t, domain.CallOutputError, call.State)
	assert.Contains(t, call.ErrorText, domain.ErrUnknownTool.Error())
}

func TestHandle_MissingEntityPolicy(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		call    stream.ToolInputAvailable
		want    domain.CallState
		wantErr error
	}{
		{"update lenient", false, available("1", registry.NameUpdateCard, `{"id":"ghost","tag":"🔥"}`), domain.CallOutputAvailable, nil},
		{"update strict", true, available("1", registry.NameUpdateCard, `{"id":"ghost","tag":"🔥"}`), domain.CallOutputError, domain.ErrCardNotFound},
		{"remove cluster lenient", false, available("1", registry.NameRemoveCluster, `{"id":"Nope"}`), domain.CallOutputAvailable, nil},
		{"remove cluster strict", true, available("1", registry.NameRemoveCluster, `{"id":"Nope"}`), domain.CallOutputError, domain.ErrClusterNotFound},
		{"remove card is always a no-op", true, available("1", registry.NameRemoveCard, `{"id":"ghost"}`), domain.CallOutputAvailable, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := board.New(board.WithSeed())
			before := b.Snapshot()
			c := controller.New(b, registry.Default(), controller.WithStrictMissing(tt.strict))

			msg := run(t, c, tt.call)

			call := msg.ToolCalls()[0]
			assert.Equal(t, tt.want, call.State)
			if tt.wantErr != nil {
				assert.Contains(t, call.ErrorText, tt.wantErr.Error())
			}
			assert.Equal(t, before, b.Snapshot())
		})
	}
}

func TestHandle_LogMessage(t *testing.T) {
	var console bytes.Buffer
	c, b := newController(controller.WithConsole(&console))

	msg := run(t, c, available("1", registry.NameLogMessage, `{"message":"hello"}`))

	assert.Contains(t, console.String(), "hello")
	assert.JSONEq(t, `"Message logged to console"`, string(msg.ToolCalls()[0].Output))
	assert.Empty(t, b.Snapshot().Clusters)
}

func TestHandle_Failure(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()
	boom := errors.New("connection reset")

	c.BeginTurn(domain.Message{ID: "m1"})
	require.NoError(t, c.Handle(ctx, stream.TextDelta{Text: "partial"}))
	err := c.Handle(ctx, stream.Failure{Err: boom})
	assert.ErrorIs(t, err, boom)

	msg, err := c.EndTurn()
	require.NoError(t, err)
	assert.Equal(t, "connection reset", msg.Error)
	assert.Equal(t, "partial", msg.Text())
}

func TestHandle_NoTurn(t *testing.T) {
	c, _ := newController()

	assert.ErrorIs(t, c.Handle(context.Background(), stream.TextDelta{Text: "x"}), controller.ErrNoTurn)
	_, err := c.EndTurn()
	assert.ErrorIs(t, err, controller.ErrNoTurn)
}

func TestHooks_ToolReturn(t *testing.T) {
	var returns []*domain.ToolEvent
	c, _ := newController(
		controller.WithSessionID("s1"),
		controller.WithHooks(domain.LifecycleHooks{
			OnToolReturn: func(_ context.Context, ev *domain.ToolEvent) { returns = append(returns, ev) },
		}),
	)

	run(t, c,
		available("1", registry.NameClearWhiteboard, `{}`),
		available("2", registry.NameRemoveCard, `{}`),
	)

	require.Len(t, returns, 2)
	assert.Equal(t, domain.EventToolReturn, returns[0].Type)
	assert.Equal(t, "s1", returns[0].SessionID)
	assert.False(t, returns[0].IsError)
	assert.True(t, returns[1].IsError)
}

func TestInvoke(t *testing.T) {
	c, b := newController()
	ctx := context.Background()

	call, err := c.Invoke(ctx, "x1", registry.NameAddCard, json.RawMessage(`{"id":"a","color":"yellow","text":"CEO","cluster":"Management"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.CallOutputAvailable, call.State)
	assert.Equal(t, 1, b.Snapshot().CardCount())

	_, err = c.Invoke(ctx, "x1", registry.NameAddCard, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, controller.ErrAlreadyDispatched)

	bad, err := c.Invoke(ctx, "x2", registry.NameRemoveCluster, json.RawMessage(`{"name":"Management"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.CallOutputError, bad.State)
}

func TestHandle_ExecutesInAvailabilityOrder(t *testing.T) {
	var order []string
	c, b := newController(controller.WithHooks(domain.LifecycleHooks{
		OnToolCall: func(_ context.Context, ev *domain.ToolEvent) { order = append(order, ev.CallID) },
	}))

	msg := run(t, c,
		stream.ToolInputStart{CallID: "1", ToolName: registry.NameUpdateCard},
		stream.ToolInputStart{CallID: "2", ToolName: registry.NameAddCard},
		stream.ToolInputDelta{CallID: "2", Delta: `{"id":"a","color":"green","text":"Alice","cluster":"Team"}`},
		stream.ToolInputAvailable{CallID: "2", ToolName: registry.NameAddCard},
		stream.ToolInputDelta{CallID: "1", Delta: `{"id":"a","cluster":"Sales"}`},
		stream.ToolInputAvailable{CallID: "1", ToolName: registry.NameUpdateCard},
	)

	assert.Equal(t, []string{"2", "1"}, order)
	for _, call := range msg.ToolCalls() {
		assert.Equal(t, domain.CallOutputAvailable, call.State, call.ID)
	}

	_, cluster, ok := b.Snapshot().FindCard("a")
	require.True(t, ok)
	assert.Equal(t, "Sales", cluster)
}

func TestHandle_MalformedStreamedInputStaysEncodable(t *testing.T) {
	tests := []struct {
		name  string
		delta string
		input string
	}{
		{"truncated object", `{"id":"a"`, ""},
		{"non-object delta", `["a"]`, ""},
		{"non-object payload", "", `"a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, b := newController()

			events := []stream.Event{stream.ToolInputStart{CallID: "1", ToolName: registry.NameAddCard}}
			if tt.delta != "" {
				events = append(events, stream.ToolInputDelta{CallID: "1", Delta: tt.delta})
			}
			events = append(events, available("1", registry.NameAddCard, tt.input))
			msg := run(t, c, events...)

			call := msg.ToolCalls()[0]
			assert.Equal(t, domain.CallOutputError, call.State)
			assert.Contains(t, call.ErrorText, domain.ErrInvalidInput.Error())
			assert.Nil(t, call.Input)
			assert.NotEmpty(t, call.InputText)
			assert.Zero(t, b.Snapshot().CardCount())

			_, err := json.Marshal(domain.Transcript{msg})
			assert.NoError(t, err)
		})
	}
}

func TestInvoke_NullArgumentsMeanNoInput(t *testing.T) {
	c, _ := newController()

	call, err := c.Invoke(context.Background(), "x1", registry.NameGetWhiteboard, json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, domain.CallOutputAvailable, call.State)
	assert.Nil(t, call.Input)
}
