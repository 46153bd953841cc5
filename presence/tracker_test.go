package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusWrite struct {
	userID   string
	online   bool
	lastSeen time.Time
}

type fakeStatusStore struct {
	mu     sync.Mutex
	writes []statusWrite
	fail   bool
}

func (s *fakeStatusStore) SetOnlineStatus(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store down")
	}
	s.writes = append(s.writes, statusWrite{userID: userID, online: online, lastSeen: lastSeen})
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	online  map[string]bool
	failing bool
}

func (c *fakeCache) SetOnline(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("cache down")
	}
	c.online[userID] = true
	return nil
}

func (c *fakeCache) SetOffline(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("cache down")
	}
	delete(c.online, userID)
	return nil
}

func TestTrackerOnlineOffline(t *testing.T) {
	store := &fakeStatusStore{}
	tr := NewTracker(store, nil)

	require.NoError(t, tr.SetOnline(context.Background(), "u1"))
	assert.True(t, tr.IsOnline("u1"))

	seen := time.Now()
	require.NoError(t, tr.SetOffline(context.Background(), "u1", seen))
	assert.False(t, tr.IsOnline("u1"))

	require.Len(t, store.writes, 2)
	assert.Equal(t, statusWrite{userID: "u1", online: true}, store.writes[0])
	assert.Equal(t, statusWrite{userID: "u1", online: false, lastSeen: seen}, store.writes[1])
}

func TestTrackerDurableWriteFailureKeepsState(t *testing.T) {
	store := &fakeStatusStore{}
	tr := NewTracker(store, nil)
	require.NoError(t, tr.SetOnline(context.Background(), "u1"))

	// A failed durable write must surface and must not flip the in-memory
	// flag, otherwise the offline broadcast could outrun storage.
	store.fail = true
	err := tr.SetOffline(context.Background(), "u1", time.Now())
	assert.Error(t, err)
	assert.True(t, tr.IsOnline("u1"))
}

func TestTrackerCacheIsBestEffort(t *testing.T) {
	store := &fakeStatusStore{}
	cache := &fakeCache{online: make(map[string]bool), failing: true}
	tr := NewTracker(store, cache)

	// Cache failures are swallowed; the durable write already happened.
	require.NoError(t, tr.SetOnline(context.Background(), "u1"))
	assert.True(t, tr.IsOnline("u1"))

	cache.failing = false
	require.NoError(t, tr.SetOnline(context.Background(), "u2"))
	assert.True(t, cache.online["u2"])
	require.NoError(t, tr.SetOffline(context.Background(), "u2", time.Now()))
	assert.False(t, cache.online["u2"])
}

func TestTrackerUnknownUserIsOffline(t *testing.T) {
	tr := NewTracker(&fakeStatusStore{}, nil)
	assert.False(t, tr.IsOnline("nobody"))
}
