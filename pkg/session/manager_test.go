package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/whiteboard/pkg/board"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.SessionRecord
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, rec *domain.SessionRecord) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.SessionRecord)
	}
	s.data[sessionID] = *rec
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.data[sessionID]; ok {
		return &rec, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(ctx, key, ttl)
	fn, _ := args.Get(0).(ports.UnlockFunc)
	return fn, args.Error(1)
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Save(ctx, domain.NewSessionRecord(id)))
		}()
	}
	wg.Wait()

	rec, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
}

func TestManager_LoadOrStart(t *testing.T) {
	// Verify atomic creation
	store := &SlowStore{}
	manager := session.NewManager(store, session.WithInitialBoard(board.Seed))
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, rec)
		}()
	}
	wg.Wait()

	rec, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, board.Seed(), rec.Snapshot)
	assert.Empty(t, rec.Transcript)
}

func TestManager_DistributedLock(t *testing.T) {
	locker := new(MockLocker)
	var unlocked atomic.Int32
	unlock := ports.UnlockFunc(func(ctx context.Context) error {
		unlocked.Add(1)
		return nil
	})
	locker.On("Lock", mock.Anything, "s1", 5*time.Second).Return(unlock, nil)

	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	require.NoError(t, manager.Save(context.Background(), domain.NewSessionRecord("s1")))

	locker.AssertExpectations(t)
	assert.Equal(t, int32(1), unlocked.Load())
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := new(MockLocker)
	locker.On("Lock", mock.Anything, "s1", session.DefaultLockTTL).Return(nil, errors.New("redis down"))

	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker))
	err := manager.Save(context.Background(), domain.NewSessionRecord("s1"))
	assert.ErrorContains(t, err, "redis down")
}

func TestManager_Open(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	var builds atomic.Int32
	build := func(rec *domain.SessionRecord) (*session.Session, error) {
		builds.Add(1)
		return newSession(rec.ID, new(MockModel), board.New(board.WithSnapshot(rec.Snapshot))), nil
	}

	s1, err := manager.Open(ctx, "s1", build)
	require.NoError(t, err)
	s2, err := manager.Open(ctx, "s1", build)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, int32(1), builds.Load())

	live, ok := manager.Live("s1")
	assert.True(t, ok)
	assert.Same(t, s1, live)

	require.NoError(t, manager.Delete(ctx, "s1"))
	_, ok = manager.Live("s1")
	assert.False(t, ok)
	_, err = manager.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_OpenBuildError(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	_, err := manager.Open(context.Background(), "s1", func(*domain.SessionRecord) (*session.Session, error) {
		return nil, errors.New("no model configured")
	})
	assert.ErrorContains(t, err, "no model configured")
	_, ok := manager.Live("s1")
	assert.False(t, ok)
}

func TestManager_ListSorted(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, manager.Save(ctx, domain.NewSessionRecord(id)))
	}

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
