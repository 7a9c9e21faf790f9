package domain

import (
	"strings"
	"time"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType distinguishes prose from tool calls inside a message.
type PartType string

const (
	PartText PartType = "text"
	PartTool PartType = "tool"
)

// Part is one ordered element of a message.
type Part struct {
	Type PartType  `json:"type"`
	Text string    `json:"text,omitempty"`
	Tool *ToolCall `json:"tool,omitempty"`
}

// Message is a single transcript turn.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at"`

	// Error is set when the turn producing this message failed mid-stream.
	Error string `json:"error,omitempty"`
}

// NewUserMessage builds a user message holding a single text part.
func NewUserMessage(id, text string, at time.Time) Message {
	return Message{
		ID:        id,
		Role:      RoleUser,
		Parts:     []Part{{Type: PartText, Text: text}},
		CreatedAt: at,
	}
}

// Text concatenates every text part of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the tool parts of the message in order.
func (m Message) ToolCalls() []*ToolCall {
	var calls []*ToolCall
	for _, p := range m.Parts {
		if p.Type == PartTool && p.Tool != nil {
			calls = append(calls, p.Tool)
		}
	}
	return calls
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	parts := make([]Part, len(m.Parts))
	for i, p := range m.Parts {
		if p.Tool != nil {
			call := p.Tool.Clone()
			p.Tool = &call
		}
		parts[i] = p
	}
	m.Parts = parts
	return m
}

// Transcript is the ordered, append-only conversation history.
type Transcript []Message

// Last returns a pointer to the final message, or nil when empty.
func (t Transcript) Last() *Message {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Clone returns a deep copy of the transcript.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	for i, m := range t {
		out[i] = m.Clone()
	}
	return out
}

// LastAssistant returns the final assistant message, or nil when there is none.
func (t Transcript) LastAssistant() *Message {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleAssistant {
			return &t[i]
		}
	}
	return nil
}
