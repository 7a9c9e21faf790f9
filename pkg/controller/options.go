package controller

import (
	"io"
	"log/slog"

	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/pkg/domain"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks registers lifecycle callbacks fired around every dispatch.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = domain.MergeHooks(c.hooks, hooks)
	}
}

// WithStrictMissing makes updates and cluster removals that target absent
// entities fail instead of succeeding with an unchanged board.
func WithStrictMissing(strict bool) Option {
	return func(c *Controller) {
		c.strict = strict
	}
}

// WithConsole sets where logMessage writes. Defaults to io.Discard.
func WithConsole(w io.Writer) Option {
	return func(c *Controller) {
		if w != nil {
			c.console = w
		}
	}
}

// WithSessionID tags emitted lifecycle events with the owning session.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

func defaults(c *Controller) {
	c.logger = logging.NewNop()
	c.console = io.Discard
}
