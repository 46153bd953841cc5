package chat

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"chatbug/backend/models"

	"github.com/google/uuid"
)

// SessionState is the lifecycle of one connection.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

// Outbox delivers encoded frames to a single connection. Send must never
// block: it reports false when the connection can no longer accept frames
// (buffer overflow or closed transport). Close asks the transport to shut
// the connection down; it must be safe to call more than once.
type Outbox interface {
	Send(data []byte) bool
	Close()
}

// Session is the coordinator's handle for one authenticated connection.
type Session struct {
	ID     string
	User   models.User
	outbox Outbox
	state  atomic.Int32
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// RoomDirectory is the durable source of truth for rooms and membership.
type RoomDirectory interface {
	// RoomByID returns ErrNotFound (possibly wrapped) for unknown ids.
	RoomByID(ctx context.Context, roomID string) (*models.Room, error)
	// MemberRoomIDs lists the rooms the user is a durable member of.
	MemberRoomIDs(ctx context.Context, userID string) ([]string, error)
	// TouchActivity moves the room's last-activity timestamp forward.
	TouchActivity(ctx context.Context, roomID string, at time.Time) error
}

// MessageAppender persists messages. Append assigns the identifier and the
// server-side timestamp; client-supplied timestamps are never trusted.
type MessageAppender interface {
	Append(ctx context.Context, msg models.Message) (models.Message, error)
}

// PresenceTracker records online/offline state. SetOffline must reach
// durable storage before it returns, so the offline broadcast that follows
// it never races a process restart.
type PresenceTracker interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string, lastSeen time.Time) error
	IsOnline(userID string) bool
}

// Coordinator owns the per-connection lifecycle, authorizes every inbound
// event against the room directory, persists through the message store and
// fans out through the registry. One Coordinator serves all connections.
type Coordinator struct {
	rooms    RoomDirectory
	messages MessageAppender
	presence PresenceTracker
	registry *Registry
	typing   *TypingTracker

	maxMessageLen int

	mu       sync.RWMutex
	sessions map[string]*Session // connection id -> session

	lockMu    sync.Mutex
	roomLocks map[string]*sync.Mutex // serializes persist+broadcast per room
}

// NewCoordinator wires the coordinator to its collaborators. maxMessageLen
// bounds send-message content in runes; zero selects the default of 1000.
func NewCoordinator(rooms RoomDirectory, messages MessageAppender, presence PresenceTracker, registry *Registry, typing *TypingTracker, maxMessageLen int) *Coordinator {
	if maxMessageLen <= 0 {
		maxMessageLen = 1000
	}
	return &Coordinator{
		rooms:         rooms,
		messages:      messages,
		presence:      presence,
		registry:      registry,
		typing:        typing,
		maxMessageLen: maxMessageLen,
		sessions:      make(map[string]*Session),
		roomLocks:     make(map[string]*sync.Mutex),
	}
}

// Registry exposes the connection registry, mainly for transports and tests.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Connect admits an already-verified identity: it registers the connection,
// auto-subscribes it to every room the user is a durable member of, marks
// the user online and activates the session. The transport calls this once
// per connection, after identity verification and before the read loop.
func (c *Coordinator) Connect(ctx context.Context, user models.User, outbox Outbox) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		User:   user,
		outbox: outbox,
	}
	s.state.Store(int32(StateAuthenticated))

	userID := user.ID.Hex()
	c.registry.Register(s.ID, userID)
	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()

	roomIDs, err := c.rooms.MemberRoomIDs(ctx, userID)
	if err != nil {
		// The connection still comes up; the client can join rooms
		// explicitly and history fetches are unaffected.
		log.Printf("Error loading memberships for user %s: %v", userID, err)
	}
	for _, roomID := range roomIDs {
		c.registry.Subscribe(s.ID, roomID)
	}

	if err := c.presence.SetOnline(ctx, userID); err != nil {
		log.Printf("Error marking user %s online: %v", userID, err)
	}

	s.state.Store(int32(StateActive))
	log.Printf("User %s connected (session %s, %d rooms)", user.Username, s.ID, len(roomIDs))
	return s
}

// Disconnect tears a session down: the connection leaves the registry
// synchronously so no later broadcast targets it, typing indicators are
// dropped, and when this was the user's last connection the durable offline
// write completes before the user-offline notice goes out. In-flight store
// writes the connection triggered earlier stay valid.
func (c *Coordinator) Disconnect(ctx context.Context, s *Session) {
	if !s.state.CompareAndSwap(int32(StateActive), int32(StateClosed)) &&
		!s.state.CompareAndSwap(int32(StateAuthenticated), int32(StateClosed)) {
		return
	}

	c.mu.Lock()
	delete(c.sessions, s.ID)
	c.mu.Unlock()

	userID := s.User.ID.Hex()
	roomIDs := c.registry.Unregister(s.ID)
	c.typing.ClearUser(userID, roomIDs)
	s.outbox.Close()

	if len(c.registry.ConnectionsOf(userID)) > 0 {
		// Another device is still online; presence is per-user.
		log.Printf("User %s dropped session %s, other connections remain", s.User.Username, s.ID)
		return
	}

	if err := c.presence.SetOffline(ctx, userID, time.Now()); err != nil {
		log.Printf("Error marking user %s offline: %v", userID, err)
	}

	offline := encodeEvent(EventUserOffline, UserPayload{
		UserID:   userID,
		Username: s.User.Username,
	})
	for _, connID := range c.registry.Connections() {
		c.sendTo(connID, offline)
	}
	log.Printf("User %s disconnected (session %s)", s.User.Username, s.ID)
}

// HandleEvent dispatches one inbound frame. Every failure is converted into
// a single error event back to the originating connection; nothing here ever
// reaches other subscribers or terminates the session.
func (c *Coordinator) HandleEvent(ctx context.Context, s *Session, raw []byte) {
	if s.State() != StateActive {
		return
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError(s, "Malformed event")
		return
	}

	var err error
	switch env.Event {
	case EventJoinRoom:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = c.handleJoinRoom(ctx, s, p.RoomID)
		}
	case EventLeaveRoom:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			c.handleLeaveRoom(s, p.RoomID)
		}
	case EventSendMessage:
		var p SendMessagePayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = c.handleSendMessage(ctx, s, p)
		}
	case EventTyping:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			c.handleTyping(s, p.RoomID, true)
		}
	case EventStopTyping:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			c.handleTyping(s, p.RoomID, false)
		}
	default:
		c.sendError(s, "Unknown event")
		return
	}

	if err != nil {
		log.Printf("Event %s from user %s rejected: %v", env.Event, s.User.Username, err)
		c.sendError(s, userMessage(err))
	}
}

// handleJoinRoom subscribes the connection to a room after checking access.
// Joining a room the connection already listens to acks again but never
// re-broadcasts user-joined.
func (c *Coordinator) handleJoinRoom(ctx context.Context, s *Session, roomID string) error {
	room, err := c.rooms.RoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.AccessibleBy(s.User.ID) {
		return ErrAccessDenied
	}

	id := room.ID.Hex()
	first := c.registry.Subscribe(s.ID, id)

	s.outbox.Send(encodeEvent(EventJoinedRoom, JoinedRoomPayload{
		RoomID:   id,
		RoomName: room.Name,
	}))

	if first {
		c.broadcastToRoom(id, s.ID, encodeEvent(EventUserJoined, UserPayload{
			UserID:   s.User.ID.Hex(),
			Username: s.User.Username,
			Avatar:   s.User.Avatar,
		}))
	}
	return nil
}

// handleLeaveRoom drops the subscription if present. Leaving is always
// permitted and a no-op when not subscribed.
func (c *Coordinator) handleLeaveRoom(s *Session, roomID string) {
	if !c.registry.Unsubscribe(s.ID, roomID) {
		return
	}
	c.typing.Clear(roomID, s.User.ID.Hex())
	c.broadcastToRoom(roomID, s.ID, encodeEvent(EventUserLeft, UserPayload{
		UserID:   s.User.ID.Hex(),
		Username: s.User.Username,
	}))
}

// handleSendMessage validates, authorizes, persists, then broadcasts. The
// persist and broadcast steps are serialized per room so subscribers observe
// messages in persistence order. Persistence and fan-out are deliberately
// not transactional: once Append succeeds the message is durable even if
// some recipients miss the broadcast; they see it on the next history fetch.
func (c *Coordinator) handleSendMessage(ctx context.Context, s *Session, p SendMessagePayload) error {
	if p.Content == "" || utf8.RuneCountInString(p.Content) > c.maxMessageLen {
		return ErrInvalidInput
	}
	msgType := p.Type
	if msgType == "" {
		msgType = models.MessageText
	}
	switch msgType {
	case models.MessageText, models.MessageImage, models.MessageFile:
	default:
		return ErrInvalidInput
	}

	room, err := c.rooms.RoomByID(ctx, p.RoomID)
	if err != nil {
		return err
	}
	if !room.AccessibleBy(s.User.ID) {
		return ErrAccessDenied
	}

	id := room.ID.Hex()
	lock := c.roomLock(id)
	lock.Lock()
	defer lock.Unlock()

	stored, err := c.messages.Append(ctx, models.Message{
		RoomID:         room.ID,
		SenderID:       s.User.ID,
		SenderUsername: s.User.Username,
		SenderAvatar:   s.User.Avatar,
		Type:           msgType,
		Content:        p.Content,
		FileURL:        p.FileURL,
	})
	if err != nil {
		return err
	}

	if err := c.rooms.TouchActivity(ctx, id, stored.CreatedAt); err != nil {
		// The message is already durable; a stale last-activity sort is
		// tolerable and self-heals on the next send.
		log.Printf("Error touching activity for room %s: %v", id, err)
	}

	// The sender's own connection receives the broadcast too, so clients
	// render from one stream instead of also consuming the send result.
	c.broadcastToRoom(id, "", encodeEvent(EventNewMessage, stored))
	return nil
}

// handleTyping broadcasts the indicator to the room's other subscribers.
// No authorization and no persistence; the state is advisory.
func (c *Coordinator) handleTyping(s *Session, roomID string, start bool) {
	userID := s.User.ID.Hex()
	name := EventUserStopTyping
	if start {
		c.typing.Touch(roomID, userID, s.User.Username)
		name = EventUserTyping
	} else {
		c.typing.Clear(roomID, userID)
	}
	c.broadcastToRoom(roomID, s.ID, encodeEvent(name, TypingPayload{
		UserID:   userID,
		Username: s.User.Username,
		RoomID:   roomID,
	}))
}

// RunTypingSweep expires stale typing indicators until ctx is cancelled,
// broadcasting user-stop-typing for each so clients converge even when no
// explicit stop-typing was ever sent.
func (c *Coordinator) RunTypingSweep(ctx context.Context) {
	c.typing.Run(ctx, DefaultTypingSweep, c.notifyTypingExpired)
}

func (c *Coordinator) notifyTypingExpired(e TypingExpiry) {
	c.broadcastToRoom(e.RoomID, "", encodeEvent(EventUserStopTyping, TypingPayload{
		UserID:   e.UserID,
		Username: e.Username,
		RoomID:   e.RoomID,
	}))
}

// broadcastToRoom fans one encoded frame out to a room's subscribers,
// skipping exceptConn when non-empty. A failure to reach one recipient
// never aborts delivery to the rest.
func (c *Coordinator) broadcastToRoom(roomID, exceptConn string, data []byte) {
	for _, connID := range c.registry.SubscribersOf(roomID) {
		if connID == exceptConn {
			continue
		}
		c.sendTo(connID, data)
	}
}

// sendTo delivers a frame to one connection. When the outbox reports
// overflow the connection is asked to close; its read loop will then run the
// normal disconnect path.
func (c *Coordinator) sendTo(connID string, data []byte) {
	c.mu.RLock()
	s, ok := c.sessions[connID]
	c.mu.RUnlock()
	if !ok {
		return
	}
	if !s.outbox.Send(data) {
		log.Printf("Send buffer overflow, closing session %s (user %s)", s.ID, s.User.Username)
		s.outbox.Close()
	}
}

func (c *Coordinator) sendError(s *Session, message string) {
	s.outbox.Send(encodeEvent(EventError, ErrorPayload{Message: message}))
}

// roomLock returns the mutex serializing send processing for a room.
func (c *Coordinator) roomLock(roomID string) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	l, ok := c.roomLocks[roomID]
	if !ok {
		l = &sync.Mutex{}
		c.roomLocks[roomID] = l
	}
	return l
}
