package chat

import (
	"context"
	"sync"
	"time"
)

// DefaultTypingTTL is how long a typing indicator survives without a
// refresh. DefaultTypingSweep is how often stale entries are collected; a
// periodic sweep keeps overhead bounded instead of arming a timer per entry.
const (
	DefaultTypingTTL   = 3 * time.Second
	DefaultTypingSweep = 1 * time.Second
)

// TypingTracker holds the server-side view of who is typing in which room.
// State is advisory and purely in-memory; entries expire on their own even
// when a stop-typing never arrives (closed laptop, dropped connection).
type TypingTracker struct {
	mu    sync.Mutex
	rooms map[string]map[string]typingEntry // room id -> user id -> entry
	ttl   time.Duration
	now   func() time.Time
}

type typingEntry struct {
	username string
	last     time.Time
}

// TypingExpiry identifies one expired typing indicator.
type TypingExpiry struct {
	RoomID   string
	UserID   string
	Username string
}

func NewTypingTracker(ttl time.Duration) *TypingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingTracker{
		rooms: make(map[string]map[string]typingEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Touch records or refreshes a typing signal.
func (t *TypingTracker) Touch(roomID, userID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[roomID]
	if !ok {
		room = make(map[string]typingEntry)
		t.rooms[roomID] = room
	}
	room[userID] = typingEntry{username: username, last: t.now()}
}

// Clear removes a typing entry, reporting whether one existed.
func (t *TypingTracker) Clear(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	if _, present := room[userID]; !present {
		return false
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

// ClearUser drops the user's typing entries in the given rooms, used on
// disconnect so indicators do not linger for a gone connection.
func (t *TypingTracker) ClearUser(userID string, roomIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, roomID := range roomIDs {
		room, ok := t.rooms[roomID]
		if !ok {
			continue
		}
		delete(room, userID)
		if len(room) == 0 {
			delete(t.rooms, roomID)
		}
	}
}

// Sweep removes entries older than the TTL and returns them.
func (t *TypingTracker) Sweep() []TypingExpiry {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-t.ttl)
	var expired []TypingExpiry
	for roomID, room := range t.rooms {
		for userID, entry := range room {
			if entry.last.Before(cutoff) {
				expired = append(expired, TypingExpiry{RoomID: roomID, UserID: userID, Username: entry.username})
				delete(room, userID)
			}
		}
		if len(room) == 0 {
			delete(t.rooms, roomID)
		}
	}
	return expired
}

// IsTyping reports whether a non-expired entry exists for (room, user).
func (t *TypingTracker) IsTyping(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	entry, present := room[userID]
	return present && !entry.last.Before(t.now().Add(-t.ttl))
}

// Run sweeps on the given cadence until the context is cancelled, invoking
// onExpire for every expired entry.
func (t *TypingTracker) Run(ctx context.Context, interval time.Duration, onExpire func(TypingExpiry)) {
	if interval <= 0 {
		interval = DefaultTypingSweep
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, e := range t.Sweep() {
				onExpire(e)
			}
		}
	}
}
