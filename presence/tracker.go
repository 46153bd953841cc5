// Package presence tracks which users are currently online. The in-memory
// set answers reads with no I/O; the durable user record is the source of
// truth across restarts, and an optional shared cache lets other processes
// observe presence without hitting the database.
package presence

import (
	"context"
	"log"
	"sync"
	"time"
)

// UserStatusStore persists the online flag and last-seen timestamp on the
// durable user record.
type UserStatusStore interface {
	SetOnlineStatus(ctx context.Context, userID string, online bool, lastSeen time.Time) error
}

// Cache is an optional shared presence view (Redis in production). Failures
// here are logged, never propagated: the cache is a read accelerator, not a
// source of truth.
type Cache interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// Tracker implements the presence component. SetOffline completes its
// durable write before returning, so callers can broadcast an offline notice
// without risking presence drift after a process restart.
type Tracker struct {
	store UserStatusStore
	cache Cache // may be nil

	mu     sync.RWMutex
	online map[string]struct{}
}

func NewTracker(store UserStatusStore, cache Cache) *Tracker {
	return &Tracker{
		store:  store,
		cache:  cache,
		online: make(map[string]struct{}),
	}
}

// SetOnline marks the user online durably and in memory.
func (t *Tracker) SetOnline(ctx context.Context, userID string) error {
	if err := t.store.SetOnlineStatus(ctx, userID, true, time.Time{}); err != nil {
		return err
	}
	t.mu.Lock()
	t.online[userID] = struct{}{}
	t.mu.Unlock()
	if t.cache != nil {
		if err := t.cache.SetOnline(ctx, userID); err != nil {
			log.Printf("Presence cache set-online failed for %s: %v", userID, err)
		}
	}
	return nil
}

// SetOffline records last-seen durably, then clears the in-memory and
// cached flags. The durable write happening first is load-bearing: the
// offline broadcast that follows must never outrun it.
func (t *Tracker) SetOffline(ctx context.Context, userID string, lastSeen time.Time) error {
	if err := t.store.SetOnlineStatus(ctx, userID, false, lastSeen); err != nil {
		return err
	}
	t.mu.Lock()
	delete(t.online, userID)
	t.mu.Unlock()
	if t.cache != nil {
		if err := t.cache.SetOffline(ctx, userID); err != nil {
			log.Printf("Presence cache set-offline failed for %s: %v", userID, err)
		}
	}
	return nil
}

// IsOnline answers from memory only.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}
