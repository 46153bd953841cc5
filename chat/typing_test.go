package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingExpiresWithoutStopTyping(t *testing.T) {
	now := time.Now()
	tr := NewTypingTracker(3 * time.Second)
	tr.now = func() time.Time { return now }

	tr.Touch("room1", "u1", "alice")
	assert.True(t, tr.IsTyping("room1", "u1"))
	assert.Empty(t, tr.Sweep(), "fresh entry must survive a sweep")

	// Past the quiescence window with no refresh.
	now = now.Add(3*time.Second + time.Millisecond)
	expired := tr.Sweep()
	require.Len(t, expired, 1)
	assert.Equal(t, TypingExpiry{RoomID: "room1", UserID: "u1", Username: "alice"}, expired[0])
	assert.False(t, tr.IsTyping("room1", "u1"))
	assert.Empty(t, tr.Sweep(), "expired entry is gone for good")
}

func TestTypingRefreshExtendsWindow(t *testing.T) {
	now := time.Now()
	tr := NewTypingTracker(3 * time.Second)
	tr.now = func() time.Time { return now }

	tr.Touch("room1", "u1", "alice")
	now = now.Add(2 * time.Second)
	tr.Touch("room1", "u1", "alice")
	now = now.Add(2 * time.Second)

	assert.Empty(t, tr.Sweep(), "refresh restarts the window")
	assert.True(t, tr.IsTyping("room1", "u1"))
}

func TestTypingClear(t *testing.T) {
	tr := NewTypingTracker(3 * time.Second)
	tr.Touch("room1", "u1", "alice")

	assert.True(t, tr.Clear("room1", "u1"))
	assert.False(t, tr.Clear("room1", "u1"))
	assert.False(t, tr.IsTyping("room1", "u1"))
}

func TestTypingClearUser(t *testing.T) {
	tr := NewTypingTracker(3 * time.Second)
	tr.Touch("room1", "u1", "alice")
	tr.Touch("room2", "u1", "alice")
	tr.Touch("room1", "u2", "bob")

	tr.ClearUser("u1", []string{"room1", "room2"})

	assert.False(t, tr.IsTyping("room1", "u1"))
	assert.False(t, tr.IsTyping("room2", "u1"))
	assert.True(t, tr.IsTyping("room1", "u2"))
}
