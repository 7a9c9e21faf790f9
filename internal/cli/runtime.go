package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/whiteboard"
	"github.com/aretw0/whiteboard/internal/config"
	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/internal/metrics"
	"github.com/aretw0/whiteboard/pkg/adapters/file"
	"github.com/aretw0/whiteboard/pkg/adapters/gemini"
	loamAdapter "github.com/aretw0/whiteboard/pkg/adapters/loam"
	"github.com/aretw0/whiteboard/pkg/adapters/memory"
	"github.com/aretw0/whiteboard/pkg/adapters/redis"
	"github.com/aretw0/whiteboard/pkg/adapters/uistream"
	"github.com/aretw0/whiteboard/pkg/board"
	"github.com/aretw0/whiteboard/pkg/persistence/middleware"
	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/registry"
	"github.com/aretw0/whiteboard/pkg/session"
	"github.com/aretw0/whiteboard/pkg/stream"
)

// DefaultProfile is the prompt profile used when none is configured.
const DefaultProfile = "default"

// Runtime holds everything a command needs, assembled from the configuration.
type Runtime struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   ports.StateStore
	Manager *session.Manager
	Engine  *whiteboard.Engine
	Metrics *metrics.Collector
	Prompts ports.PromptLoader

	closers []io.Closer
}

// RuntimeOption adjusts runtime assembly.
type RuntimeOption func(*runtimeSettings)

type runtimeSettings struct {
	model   ports.Model
	console io.Writer
	logger  *slog.Logger
	noModel bool
}

// WithModel injects a model provider instead of building one from the configuration.
func WithModel(m ports.Model) RuntimeOption {
	return func(s *runtimeSettings) { s.model = m }
}

// WithConsole sets where logMessage output goes.
func WithConsole(w io.Writer) RuntimeOption {
	return func(s *runtimeSettings) { s.console = w }
}

// WithRuntimeLogger overrides the logger built from the configured level.
func WithRuntimeLogger(l *slog.Logger) RuntimeOption {
	return func(s *runtimeSettings) { s.logger = l }
}

// WithoutModel skips provider setup for commands that only touch stored sessions.
func WithoutModel() RuntimeOption {
	return func(s *runtimeSettings) { s.noModel = true }
}

// NewRuntime wires stores, the model provider, prompts, metrics and the engine.
func NewRuntime(ctx context.Context, cfg config.Config, opts ...RuntimeOption) (*Runtime, error) {
	settings := runtimeSettings{console: io.Discard}
	for _, opt := range opts {
		opt(&settings)
	}

	rt := &Runtime{Config: cfg, Logger: settings.logger}
	if rt.Logger == nil {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		rt.Logger = logging.New(level)
	}

	var managerOpts []session.Option
	switch cfg.Store.Kind {
	case config.StoreMemory:
		rt.Store = memory.NewStore()
	case config.StoreFile:
		rt.Store = file.New(cfg.Store.Dir)
	case config.StoreRedis:
		store := redis.New(cfg.Store.Redis.Addr, "", 0,
			redis.WithPrefix(cfg.Store.Redis.Prefix),
			redis.WithTTL(cfg.Store.Redis.TTL),
		)
		rt.Store = store
		rt.closers = append(rt.closers, store)
		prefix := cfg.Store.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		managerOpts = append(managerOpts, session.WithLocker(redis.NewLocker(store.Client(), prefix)))
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store.Kind)
	}

	active, fallback, err := cfg.Store.Keys()
	if err != nil {
		rt.Close()
		return nil, err
	}
	if active != nil {
		seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Store = seal(rt.Store)
	}

	managerOpts = append(managerOpts, session.WithLogger(rt.Logger))
	if cfg.Seed {
		managerOpts = append(managerOpts, session.WithInitialBoard(board.Seed))
	}
	rt.Manager = session.NewManager(rt.Store, managerOpts...)

	prompts, err := newPromptLoader(cfg.PromptsDir)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Prompts = prompts

	profileName := cfg.Profile
	if profileName == "" {
		profileName = DefaultProfile
	}
	system, overrides, err := resolveProfile(ctx, prompts, profileName, cfg.Profile != "")
	if err != nil {
		rt.Close()
		return nil, err
	}
	if overrides.Model != "" {
		cfg.Model = overrides.Model
	}
	if overrides.MaxSteps > 0 {
		cfg.MaxSteps = overrides.MaxSteps
	}
	rt.Config = cfg

	model := settings.model
	if model == nil {
		if settings.noModel {
			model = unavailableModel{}
		} else {
			model, err = newModel(ctx, cfg)
			if err != nil {
				rt.Close()
				return nil, err
			}
		}
	}

	rt.Metrics = metrics.New()
	rt.Engine, err = whiteboard.New(model,
		whiteboard.WithLogger(rt.Logger),
		whiteboard.WithConsole(settings.console),
		whiteboard.WithSystemPrompt(system),
		whiteboard.WithStrictMissing(cfg.StrictMissing),
		whiteboard.WithMaxSteps(cfg.MaxSteps),
		whiteboard.WithCheckpoint(rt.Manager.Checkpoint),
		whiteboard.WithLifecycleHooks(logging.Hooks(rt.Logger)),
		whiteboard.WithLifecycleHooks(rt.Metrics.Hooks()),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Open returns the live session for id, restoring it from the store.
func (rt *Runtime) Open(ctx context.Context, id string, onChange board.Observer) (*session.Session, error) {
	return rt.Manager.Open(ctx, id, rt.Engine.Builder(onChange))
}

// Close releases store connections.
func (rt *Runtime) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c.Close())
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func newModel(ctx context.Context, cfg config.Config) (ports.Model, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, cfg.APIKey, gemini.WithModel(cfg.Model))
	case config.ProviderUIStream:
		return uistream.New(cfg.Endpoint,
			uistream.WithAPIKey(cfg.APIKey),
			uistream.WithModel(cfg.Model),
		), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newPromptLoader(dir string) (ports.PromptLoader, error) {
	if dir == "" {
		return memory.NewPrompts(map[string]string{DefaultProfile: registry.SystemPrompt}), nil
	}
	return loamAdapter.Open(dir)
}

// resolveProfile loads the system prompt of a profile. A missing default
// profile falls back to the built-in prompt; a missing explicit one is an error.
func resolveProfile(ctx context.Context, prompts ports.PromptLoader, name string, explicit bool) (string, loamAdapter.PromptMetadata, error) {
	if l, ok := prompts.(*loamAdapter.Loader); ok {
		p, err := l.Profile(ctx, name)
		if err == nil {
			return p.Prompt, p.Metadata, nil
		}
		if explicit {
			return "", loamAdapter.PromptMetadata{}, fmt.Errorf("prompt profile %q: %w", name, err)
		}
		return registry.SystemPrompt, loamAdapter.PromptMetadata{}, nil
	}

	text, err := prompts.Prompt(ctx, name)
	if err != nil {
		if explicit {
			return "", loamAdapter.PromptMetadata{}, fmt.Errorf("prompt profile %q: %w", name, err)
		}
		return registry.SystemPrompt, loamAdapter.PromptMetadata{}, nil
	}
	return text, loamAdapter.PromptMetadata{}, nil
}

// unavailableModel backs runtimes built for session housekeeping.
type unavailableModel struct{}

var errNoModel = errors.New("no model provider configured for this command")

func (unavailableModel) Stream(ctx context.Context, req ports.ModelRequest) (stream.Stream, error) {
	return nil, errNoModel
}
