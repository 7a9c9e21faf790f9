package whiteboard

import (
	_ "embed"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/pkg/board"
	"github.com/aretw0/whiteboard/pkg/controller"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/registry"
	"github.com/aretw0/whiteboard/pkg/session"
)

//go:embed VERSION
var versionFile string

// Version is the release of this module.
var Version = strings.TrimSpace(versionFile)

// ErrNoModel is returned by New when no model provider is given.
var ErrNoModel = errors.New("a model provider is required")

// Engine assembles boards, controllers and sessions with a shared
// configuration. Every surface (CLI, HTTP, MCP) builds its sessions here.
type Engine struct {
	model      ports.Model
	registry   *registry.Registry
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	console    io.Writer
	system     string
	strict     bool
	maxSteps   int
	checkpoint session.CheckpointFunc
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry replaces the default tool catalog.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLifecycleHooks registers observability hooks on every controller and session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConsole sets where logMessage output is written.
func WithConsole(w io.Writer) Option {
	return func(e *Engine) {
		e.console = w
	}
}

// WithSystemPrompt overrides registry.SystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) {
		e.system = prompt
	}
}

// WithStrictMissing makes updates or removals of missing entities fail.
func WithStrictMissing(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithMaxSteps bounds automatic continuation per submitted message.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithCheckpoint persists sessions after every turn.
func WithCheckpoint(fn session.CheckpointFunc) Option {
	return func(e *Engine) {
		e.checkpoint = fn
	}
}

// New initializes an Engine for the given model provider.
func New(model ports.Model, opts ...Option) (*Engine, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	e := &Engine{
		model:    model,
		system:   registry.SystemPrompt,
		maxSteps: session.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = registry.Default()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.console == nil {
		e.console = io.Discard
	}
	return e, nil
}

// Registry returns the tool catalog shared by every session.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Controller builds a controller over a board restored from snap.
func (e *Engine) Controller(sessionID string, snap domain.Snapshot, onChange board.Observer) *controller.Controller {
	b := board.New(board.WithSnapshot(snap), board.WithObserver(onChange))
	return controller.New(b, e.registry,
		controller.WithLogger(e.logger),
		controller.WithHooks(e.hooks),
		controller.WithStrictMissing(e.strict),
		controller.WithConsole(e.console),
		controller.WithSessionID(sessionID),
	)
}

// Build restores a session from its record. onChange, when set, observes
// every board mutation.
func (e *Engine) Build(rec *domain.SessionRecord, onChange board.Observer) (*session.Session, error) {
	if rec == nil {
		return nil, errors.New("session record is nil")
	}
	ctrl := e.Controller(rec.ID, rec.Snapshot, onChange)
	return session.New(rec.ID, e.model, ctrl,
		session.WithSessionLogger(e.logger),
		session.WithHooks(e.hooks),
		session.WithMaxSteps(e.maxSteps),
		session.WithSystemPrompt(e.system),
		session.WithTranscript(rec.Transcript),
		session.WithCheckpoint(e.checkpoint),
	), nil
}

// Builder adapts Build to session.Manager.Open.
func (e *Engine) Builder(onChange board.Observer) session.Builder {
	return func(rec *domain.SessionRecord) (*session.Session, error) {
		return e.Build(rec, onChange)
	}
}
