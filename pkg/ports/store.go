package ports

import (
	"context"

	"github.com/aretw0/whiteboard/pkg/domain"
)

// StateStore defines the interface for persisting conversation sessions.
// This allows a whiteboard conversation to be stopped and resumed later.
type StateStore interface {
	// Save persists the record for a given session ID.
	Save(ctx context.Context, sessionID string, record *domain.SessionRecord) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// Delete removes the record for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
