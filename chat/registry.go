package chat

import "sync"

// Registry tracks which live connections belong to which user and which
// rooms each connection is currently subscribed to. It is the sole authority
// for fan-out targets. Everything here is in-memory: a process restart drops
// live subscriptions but never durable membership, which is rebuilt on each
// reconnect from the room directory.
//
// All maps are guarded by one RWMutex. The critical sections are map
// operations only; actual writes to sockets happen outside the lock, so the
// lock is never held across I/O.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connEntry          // connection id -> entry
	rooms map[string]map[string]struct{} // room id -> connection ids
	users map[string]map[string]struct{} // user id -> connection ids
}

type connEntry struct {
	userID string
	rooms  map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connEntry),
		rooms: make(map[string]map[string]struct{}),
		users: make(map[string]map[string]struct{}),
	}
}

// Register adds a new connection for a user. A user may hold any number of
// simultaneous connections.
func (r *Registry) Register(connID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[connID] = &connEntry{userID: userID, rooms: make(map[string]struct{})}
	if _, ok := r.users[userID]; !ok {
		r.users[userID] = make(map[string]struct{})
	}
	r.users[userID][connID] = struct{}{}
}

// Subscribe adds the connection to a room's subscriber set. It reports false
// when the connection is unknown or was already subscribed, so callers can
// keep join idempotent without a second lookup.
func (r *Registry) Subscribe(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return false
	}
	if _, already := entry.rooms[roomID]; already {
		return false
	}
	entry.rooms[roomID] = struct{}{}
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[string]struct{})
	}
	r.rooms[roomID][connID] = struct{}{}
	return true
}

// Unsubscribe removes the connection from a room's subscriber set. It
// reports false when there was no such subscription.
func (r *Registry) Unsubscribe(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return false
	}
	if _, subscribed := entry.rooms[roomID]; !subscribed {
		return false
	}
	delete(entry.rooms, roomID)
	r.dropRoomConn(roomID, connID)
	return true
}

// Unregister removes the connection entirely and returns the room ids it was
// subscribed to, so the caller can drive cleanup broadcasts. The removal is
// atomic: once Unregister returns, no SubscribersOf result includes the
// connection.
func (r *Registry) Unregister(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return nil
	}
	roomIDs := make([]string, 0, len(entry.rooms))
	for roomID := range entry.rooms {
		roomIDs = append(roomIDs, roomID)
		r.dropRoomConn(roomID, connID)
	}
	delete(r.conns, connID)
	if userConns, ok := r.users[entry.userID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.users, entry.userID)
		}
	}
	return roomIDs
}

// SubscribersOf returns the connections currently subscribed to a room.
func (r *Registry) SubscribersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.rooms[roomID])
}

// ConnectionsOf returns all live connections of one user.
func (r *Registry) ConnectionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.users[userID])
}

// Connections returns every live connection id.
func (r *Registry) Connections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// IsSubscribed reports whether the connection is subscribed to the room.
func (r *Registry) IsSubscribed(connID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[connID]
	if !ok {
		return false
	}
	_, subscribed := entry.rooms[roomID]
	return subscribed
}

// dropRoomConn removes one connection from a room set, deleting the set when
// it empties. Callers must hold the write lock.
func (r *Registry) dropRoomConn(roomID, connID string) {
	if set, ok := r.rooms[roomID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

func keys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
