package session

import (
	"context"
	"log/slog"

	"github.com/aretw0/whiteboard/pkg/domain"
)

// DefaultMaxSteps bounds automatic resubmissions per Submit.
const DefaultMaxSteps = 8

// CheckpointFunc persists a session record after each turn.
type CheckpointFunc func(ctx context.Context, rec *domain.SessionRecord) error

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the structured logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxSteps caps how many model requests a single Submit may issue.
func WithMaxSteps(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithHooks registers turn lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) SessionOption {
	return func(s *Session) {
		s.hooks = domain.MergeHooks(s.hooks, hooks)
	}
}

// WithTranscript restores a previous conversation.
func WithTranscript(t domain.Transcript) SessionOption {
	return func(s *Session) {
		s.transcript = t.Clone()
	}
}

// WithSystemPrompt sets the instructions sent with every request.
func WithSystemPrompt(prompt string) SessionOption {
	return func(s *Session) {
		s.system = prompt
	}
}

// WithCheckpoint registers a persistence callback run after every turn.
func WithCheckpoint(fn CheckpointFunc) SessionOption {
	return func(s *Session) {
		s.checkpoint = fn
	}
}

// WithIDGenerator overrides how message ids are minted.
func WithIDGenerator(fn func() string) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}
