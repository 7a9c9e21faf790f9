package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// Builder turns a stored record into a live session.
type Builder func(rec *domain.SessionRecord) (*Session, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks
	live  map[string]*Session   // Sessions opened in this process

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	initial func() domain.Snapshot // Board of newly created sessions
	logger  *slog.Logger           // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithInitialBoard sets the board given to sessions created by LoadOrStart.
func WithInitialBoard(fn func() domain.Snapshot) Option {
	return func(m *Manager) {
		m.initial = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*Session),
		lockTTL: DefaultLockTTL,
		initial: domain.EmptySnapshot,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing session record from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	var rec *domain.SessionRecord
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, sessionID)
		return err
	})
	return rec, err
}

// LoadOrStart tries to load a session record. If not found, it initializes a new one.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	var rec *domain.SessionRecord
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		rec = domain.NewSessionRecord(sessionID)
		rec.Snapshot = m.initial()
		rec.UpdatedAt = time.Now().UTC()

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, rec); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Debug("session created", "session_id", sessionID)
		return nil
	})
	return rec, err
}

// Save persists the session record.
func (m *Manager) Save(ctx context.Context, rec *domain.SessionRecord) error {
	return m.WithLock(ctx, rec.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, rec.ID, rec)
	})
}

// Checkpoint is a CheckpointFunc backed by this manager.
func (m *Manager) Checkpoint(ctx context.Context, rec *domain.SessionRecord) error {
	return m.Save(ctx, rec)
}

// Open returns the live session for sessionID, loading or creating its
// record and building it on first use.
func (m *Manager) Open(ctx context.Context, sessionID string, build Builder) (*Session, error) {
	m.mu.Lock()
	s, ok := m.live[sessionID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	rec, err := m.LoadOrStart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	built, err := build(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to build session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have won the race; keep the first.
	if s, ok := m.live[sessionID]; ok {
		return s, nil
	}
	m.live[sessionID] = built
	return built, nil
}

// Live returns the open session for sessionID, if any.
func (m *Manager) Live(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	return s, ok
}

// Close forgets the live session without touching the store.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	delete(m.live, sessionID)
	m.mu.Unlock()
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	m.Close(sessionID)
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store and returns ids in lexical order.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
