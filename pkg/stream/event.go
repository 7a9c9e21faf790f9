package stream

import "encoding/json"

// Event is one element of a model output stream.
type Event interface {
	isEvent()
}

// TextDelta appends prose to the assistant message.
type TextDelta struct {
	Text string
}

// ToolInputStart announces a new tool call whose input is about to stream.
type ToolInputStart struct {
	CallID   string
	ToolName string
}

// ToolInputDelta carries a fragment of a tool call's raw JSON input.
type ToolInputDelta struct {
	CallID string
	Delta  string
}

// ToolInputAvailable carries the complete input of a tool call.
// The call may not have been announced by a ToolInputStart.
type ToolInputAvailable struct {
	CallID   string
	ToolName string
	Input    json.RawMessage
}

// Finish marks the normal end of the turn.
type Finish struct {
	Reason string
}

// Failure reports an error produced by the model or its transport mid-stream.
type Failure struct {
	Err error
}

func (TextDelta) isEvent()          {}
func (ToolInputStart) isEvent()     {}
func (ToolInputDelta) isEvent()     {}
func (ToolInputAvailable) isEvent() {}
func (Finish) isEvent()             {}
func (Failure) isEvent()            {}
