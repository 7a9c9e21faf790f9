package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/pkg/controller"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/stream"
	"github.com/google/uuid"
)

// Status is the request state of a session.
type Status string

const (
	StatusReady     Status = "ready"
	StatusSubmitted Status = "submitted"
	StatusStreaming Status = "streaming"
	StatusError     Status = "error"
)

// Busy reports whether a model request is outstanding.
func (s Status) Busy() bool {
	return s == StatusSubmitted || s == StatusStreaming
}

// Session is one conversation driving one whiteboard.
type Session struct {
	id         string
	model      ports.Model
	ctrl       *controller.Controller
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	maxSteps   int
	system     string
	checkpoint CheckpointFunc
	newID      func() string

	mu         sync.Mutex
	status     Status
	transcript domain.Transcript
	lastErr    error
	updatedAt  time.Time
}

// New creates a session. The controller must not be shared with another session.
func New(id string, model ports.Model, ctrl *controller.Controller, opts ...SessionOption) *Session {
	s := &Session{
		id:       id,
		model:    model,
		ctrl:     ctrl,
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
		newID:    uuid.NewString,
		status:   StatusReady,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", id)
	ctrl.Remember(s.transcript)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Status returns the current request state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error of the last failed request, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns the current board state.
func (s *Session) Snapshot() domain.Snapshot {
	return s.ctrl.Board().Snapshot()
}

// Transcript returns a copy of the conversation, including the assistant
// message still being streamed.
func (s *Session) Transcript() domain.Transcript {
	s.mu.Lock()
	out := s.transcript.Clone()
	streaming := s.status == StatusStreaming
	s.mu.Unlock()

	if streaming {
		if pending, ok := s.ctrl.Pending(); ok {
			out = append(out, pending)
		}
	}
	return out
}

// Record returns the durable view of the session.
func (s *Session) Record() *domain.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.SessionRecord{
		ID:         s.id,
		Snapshot:   s.ctrl.Board().Snapshot(),
		Transcript: s.transcript.Clone(),
		UpdatedAt:  s.updatedAt,
	}
}

// Submit sends a user message and runs model turns until the assistant
// stops calling tools, a turn fails, or the step limit is reached.
// It returns domain.ErrBusy if a request is already in flight.
func (s *Session) Submit(ctx context.Context, text string) error {
	clean, err := SanitizeInput(text)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	if err := s.begin(func() {
		s.transcript = append(s.transcript, domain.NewUserMessage(s.newID(), clean, time.Now().UTC()))
	}); err != nil {
		return err
	}
	return s.loop(ctx)
}

// Continue resubmits the conversation without a new user message, for
// example after restoring a session whose last turn ended with tool results.
func (s *Session) Continue(ctx context.Context) error {
	if err := s.begin(nil); err != nil {
		return err
	}
	return s.loop(ctx)
}

func (s *Session) begin(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Busy() {
		return domain.ErrBusy
	}
	s.status = StatusSubmitted
	s.lastErr = nil
	if fn != nil {
		fn()
	}
	return nil
}

func (s *Session) loop(ctx context.Context) error {
	for step := 1; ; step++ {
		err := s.turn(ctx, step)
		s.persist(ctx)
		if err != nil {
			err = fmt.Errorf("%w: %w", domain.ErrTurnFailed, err)
			s.finish(StatusError, err)
			return err
		}

		if !ShouldContinue(s.Transcript()) {
			break
		}
		if step >= s.maxSteps {
			s.logger.Warn("step limit reached, waiting for user", "max_steps", s.maxSteps)
			break
		}
		s.setStatus(StatusSubmitted)
	}
	s.finish(StatusReady, nil)
	return nil
}

// turn performs one model request and appends the resulting assistant message.
func (s *Session) turn(ctx context.Context, step int) error {
	s.fireTurn(ctx, domain.EventTurnStart, &domain.TurnEvent{Step: step})

	req := ports.ModelRequest{
		System:   s.system,
		Messages: s.Transcript(),
		Tools:    s.ctrl.Definitions(),
	}

	s.ctrl.BeginTurn(domain.Message{
		ID:        s.newID(),
		Role:      domain.RoleAssistant,
		CreatedAt: time.Now().UTC(),
	})

	st, err := s.model.Stream(ctx, req)
	if err != nil {
		s.ctrl.Fail(err)
	} else {
		s.setStatus(StatusStreaming)
		err = s.consume(ctx, st)
		if cerr := st.Close(); cerr != nil {
			s.logger.Debug("closing model stream", "error", cerr)
		}
	}

	msg, endErr := s.ctrl.EndTurn()
	if endErr != nil {
		return errors.Join(err, endErr)
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, msg)
	s.updatedAt = time.Now().UTC()
	s.mu.Unlock()

	ev := &domain.TurnEvent{Step: step, ToolCalls: len(msg.ToolCalls())}
	if err != nil {
		ev.Error = err.Error()
	} else {
		ev.Continued = ShouldContinue(domain.Transcript{msg})
	}
	s.fireTurn(ctx, domain.EventTurnEnd, ev)
	return err
}

func (s *Session) consume(ctx context.Context, st stream.Stream) error {
	for {
		ev, err := st.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.ctrl.Fail(err)
			return err
		}
		if err := s.ctrl.Handle(ctx, ev); err != nil {
			return err
		}
	}
}

func (s *Session) fireTurn(ctx context.Context, typ domain.EventType, ev *domain.TurnEvent) {
	ev.EventBase = domain.EventBase{Timestamp: time.Now(), Type: typ, SessionID: s.id}
	switch typ {
	case domain.EventTurnStart:
		if s.hooks.OnTurnStart != nil {
			s.hooks.OnTurnStart(ctx, ev)
		}
	case domain.EventTurnEnd:
		if s.hooks.OnTurnEnd != nil {
			s.hooks.OnTurnEnd(ctx, ev)
		}
	}
}

func (s *Session) persist(ctx context.Context) {
	if s.checkpoint == nil {
		return
	}
	// The request context may already be canceled; the record must still land.
	if err := s.checkpoint(context.WithoutCancel(ctx), s.Record()); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *Session) finish(st Status, err error) {
	s.mu.Lock()
	s.status = st
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("request failed", "error", err)
	}
}
