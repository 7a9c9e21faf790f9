package domain

import "encoding/json"

// CallState is the lifecycle position of a single tool call.
type CallState string

const (
	// CallInputStreaming means the input payload is still arriving and not executable.
	CallInputStreaming CallState = "input-streaming"
	// CallInputAvailable means the full input is parsed and the call is being dispatched.
	CallInputAvailable CallState = "input-available"
	// CallOutputAvailable means the call succeeded and Output holds the result.
	CallOutputAvailable CallState = "output-available"
	// CallOutputError means the call failed and ErrorText holds the reason.
	CallOutputError CallState = "output-error"
)

// Terminal reports whether no further transitions are possible.
func (s CallState) Terminal() bool {
	return s == CallOutputAvailable || s == CallOutputError
}

// Dispatched reports whether the call has already been handed to an executor.
func (s CallState) Dispatched() bool {
	return s == CallInputAvailable || s.Terminal()
}

// ToolCall represents a request from the model to the host to perform a side-effect.
// Ideally compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID    string    `json:"id" yaml:"id"`     // Unique within a turn, assigned by the model
	Name  string    `json:"name" yaml:"name"` // Tool name from the catalog
	State CallState `json:"state" yaml:"state"`

	// InputText accumulates partial input while the call is streaming.
	InputText string          `json:"input_text,omitempty" yaml:"input_text,omitempty"`
	Input     json.RawMessage `json:"input,omitempty" yaml:"input,omitempty"`

	Output    json.RawMessage `json:"output,omitempty" yaml:"output,omitempty"`
	ErrorText string          `json:"error_text,omitempty" yaml:"error_text,omitempty"`
}

// Clone returns a copy that shares no byte slices with c.
func (c ToolCall) Clone() ToolCall {
	c.Input = cloneRaw(c.Input)
	c.Output = cloneRaw(c.Output)
	return c
}

// Result returns the ToolResult view of a terminal call.
func (c ToolCall) Result() (ToolResult, bool) {
	if !c.State.Terminal() {
		return ToolResult{}, false
	}
	return ToolResult{
		ID:      c.ID,
		Output:  c.Output,
		IsError: c.State == CallOutputError,
		Error:   c.ErrorText,
	}, true
}

// ToolResult represents the output of a side-effect returned by the host.
type ToolResult struct {
	ID      string          `json:"id"` // Must match the ToolCall.ID
	Output  json.RawMessage `json:"output,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ExecutionSite declares where a tool runs.
type ExecutionSite string

const (
	// SiteClient tools are executed locally, the model only requests them.
	SiteClient ExecutionSite = "client"
	// SiteServer tools are executed by the model provider.
	SiteServer ExecutionSite = "server"
)

// ToolDefinition describes a tool available to the model.
// This is used for generating schemas/prompts.
type ToolDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Site        ExecutionSite  `json:"site" yaml:"site"`
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}
