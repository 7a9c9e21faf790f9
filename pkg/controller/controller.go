package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/whiteboard/pkg/board"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/registry"
	"github.com/aretw0/whiteboard/pkg/stream"
)

// ErrNoTurn is returned when events arrive outside BeginTurn/EndTurn.
var ErrNoTurn = errors.New("controller: no turn in progress")

// incompleteInput is the error text of calls whose input never completed.
const incompleteInput = "input incomplete"

// Controller owns the tool-call state of the assistant message being built.
type Controller struct {
	board     *board.Board
	reg       *registry.Registry
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	strict    bool
	console   io.Writer
	sessionID string

	mu    sync.Mutex
	msg   *domain.Message
	calls map[string]*domain.ToolCall
	// dispatched survives across turns; call ids are unique per conversation.
	dispatched map[string]struct{}
}

// New creates a controller executing the registry's tools against b.
func New(b *board.Board, reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{
		board:      b,
		reg:        reg,
		dispatched: make(map[string]struct{}),
	}
	defaults(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Board returns the board the controller mutates.
func (c *Controller) Board() *board.Board {
	return c.board
}

// Definitions returns the tool catalog offered to the model.
func (c *Controller) Definitions() []domain.ToolDefinition {
	return c.reg.Definitions()
}

// Remember marks every dispatched call of a restored transcript as executed.
func (c *Controller) Remember(t domain.Transcript) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range t {
		for _, call := range m.ToolCalls() {
			if call.State.Dispatched() {
				c.dispatched[call.ID] = struct{}{}
			}
		}
	}
}

// BeginTurn starts accumulating events into msg. Any unfinished turn is discarded.
func (c *Controller) BeginTurn(msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := msg.Clone()
	m.Role = domain.RoleAssistant
	c.msg = &m
	c.calls = make(map[string]*domain.ToolCall)
	for _, call := range m.ToolCalls() {
		c.calls[call.ID] = call
	}
}

// Pending returns a copy of the message under construction.
func (c *Controller) Pending() (domain.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msg == nil {
		return domain.Message{}, false
	}
	return c.msg.Clone(), true
}

// Handle applies one stream event. Tool execution happens inline, so when
// Handle returns for a ToolInputAvailable the call is already terminal.
// A Failure event is recorded on the message and returned as an error.
func (c *Controller) Handle(ctx context.Context, ev stream.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msg == nil {
		return ErrNoTurn
	}

	switch e := ev.(type) {
	case stream.TextDelta:
		c.appendText(e.Text)
	case stream.ToolInputStart:
		c.startCall(e.CallID, e.ToolName)
	case stream.ToolInputDelta:
		c.appendInput(e.CallID, e.Delta)
	case stream.ToolInputAvailable:
		c.completeCall(ctx, e)
	case stream.Finish:
		c.logger.Debug("stream finished", "message_id", c.msg.ID, "reason", e.Reason)
	case stream.Failure:
		c.failLocked(e.Err)
		return e.Err
	default:
		c.logger.Warn("unhandled stream event", "type", fmt.Sprintf("%T", ev))
	}
	return nil
}

// Fail records a transport error on the message under construction.
func (c *Controller) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failLocked(err)
}

// EndTurn closes the turn and returns the finished message.
// Calls still streaming their input end in output-error so none stays pending.
func (c *Controller) EndTurn() (domain.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msg == nil {
		return domain.Message{}, ErrNoTurn
	}
	for _, call := range c.msg.ToolCalls() {
		if call.State == domain.CallInputStreaming {
			call.State = domain.CallOutputError
			call.ErrorText = incompleteInput
			c.logger.Warn("tool call never completed", "call_id", call.ID, "tool", call.Name)
		}
	}
	out := c.msg.Clone()
	c.msg = nil
	c.calls = nil
	return out, nil
}

func (c *Controller) failLocked(err error) {
	if c.msg == nil || err == nil {
		return
	}
	c.msg.Error = err.Error()
	c.logger.Error("model stream failed", "message_id", c.msg.ID, "error", err)
}

func (c *Controller) appendText(text string) {
	if text == "" {
		return
	}
	if n := len(c.msg.Parts); n > 0 && c.msg.Parts[n-1].Type == domain.PartText {
		c.msg.Parts[n-1].Text += text
		return
	}
	c.msg.Parts = append(c.msg.Parts, domain.Part{Type: domain.PartText, Text: text})
}

// call returns the tool part for id, creating it in input-streaming when absent.
func (c *Controller) call(id, name string) *domain.ToolCall {
	if call, ok := c.calls[id]; ok {
		if call.Name == "" {
			call.Name = name
		}
		return call
	}
	call := &domain.ToolCall{ID: id, Name: name, State: domain.CallInputStreaming}
	c.calls[id] = call
	c.msg.Parts = append(c.msg.Parts, domain.Part{Type: domain.PartTool, Tool: call})
	return call
}

func (c *Controller) isDispatched(id string) bool {
	_, ok := c.dispatched[id]
	return ok
}

func (c *Controller) startCall(id, name string) {
	if c.isDispatched(id) {
		c.logger.Debug("ignoring start for dispatched call", "call_id", id)
		return
	}
	c.call(id, name)
}

func (c *Controller) appendInput(id, delta string) {
	if c.isDispatched(id) {
		c.logger.Debug("ignoring input for dispatched call", "call_id", id)
		return
	}
	call := c.call(id, "")
	call.InputText += delta
}

func (c *Controller) completeCall(ctx context.Context, e stream.ToolInputAvailable) {
	if c.isDispatched(e.CallID) {
		c.logger.Warn("duplicate tool call delivery ignored", "call_id", e.CallID, "tool", e.ToolName)
		return
	}

	call := c.call(e.CallID, e.ToolName)
	if e.ToolName != "" {
		call.Name = e.ToolName
	}
	setInput(call, e.Input)
	call.State = domain.CallInputAvailable
	c.dispatched[call.ID] = struct{}{}

	c.dispatch(ctx, call)
}

func (c *Controller) dispatch(ctx context.Context, call *domain.ToolCall) {
	ev := &domain.ToolEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventToolCall,
			SessionID: c.sessionID,
		},
		CallID:   call.ID,
		ToolName: call.Name,
		Input:    call.Input,
	}
	if c.hooks.OnToolCall != nil {
		c.hooks.OnToolCall(ctx, ev)
	}

	start := time.Now()
	output, err := c.run(call)
	if err != nil {
		call.State = domain.CallOutputError
		call.ErrorText = err.Error()
		c.logger.Warn("tool call failed", "call_id", call.ID, "tool", call.Name, "error", err)
	} else {
		call.State = domain.CallOutputAvailable
		call.Output = output
		c.logger.Debug("tool call completed", "call_id", call.ID, "tool", call.Name)
	}

	if c.hooks.OnToolReturn != nil {
		ret := *ev
		ret.Type = domain.EventToolReturn
		ret.Timestamp = time.Now()
		ret.Duration = time.Since(start)
		ret.IsError = err != nil
		if err != nil {
			ret.Output = call.ErrorText
		} else {
			ret.Output = call.Output
		}
		c.hooks.OnToolReturn(ctx, &ret)
	}
}

// setInput stores raw as the call input only when it is a JSON object, so the
// transcript always re-encodes. Anything else stays in InputText for the error path.
func setInput(call *domain.ToolCall, raw json.RawMessage) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(call.InputText)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		call.Input = nil
		return
	}
	if isObject(raw) {
		call.Input = raw
		return
	}
	call.Input = nil
	if len(bytes.TrimSpace(raw)) > 0 {
		call.InputText = string(raw)
	}
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

func (c *Controller) run(call *domain.ToolCall) (json.RawMessage, error) {
	if call.Input == nil && call.InputText != "" {
		return nil, fmt.Errorf("%w: %s input is not a JSON object: %q", domain.ErrInvalidInput, call.Name, call.InputText)
	}
	tool, err := c.reg.Decode(call.Name, call.Input)
	if err != nil {
		return nil, err
	}
	return c.execute(tool)
}

// ErrAlreadyDispatched is returned by Invoke for a call id that already ran.
var ErrAlreadyDispatched = errors.New("controller: call already dispatched")

// Invoke executes a single tool call outside of any streamed turn, for hosts
// that receive complete calls (such as MCP clients). The returned call is terminal.
func (c *Controller) Invoke(ctx context.Context, id, name string, input json.RawMessage) (domain.ToolCall, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isDispatched(id) {
		return domain.ToolCall{}, fmt.Errorf("%w: %s", ErrAlreadyDispatched, id)
	}

	call := &domain.ToolCall{ID: id, Name: name, State: domain.CallInputAvailable}
	setInput(call, input)
	c.dispatched[id] = struct{}{}
	c.dispatch(ctx, call)
	return call.Clone(), nil
}
