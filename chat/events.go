package chat

import (
	"encoding/json"

	"chatbug/backend/models"
)

// Event names on the wire. Both directions use the same envelope:
// {"event": <name>, "data": <payload>}.
const (
	// client -> server
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"

	// server -> client
	EventJoinedRoom     = "joined-room"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventNewMessage     = "new-message"
	EventUserTyping     = "user-typing"
	EventUserStopTyping = "user-stop-typing"
	EventUserOffline    = "user-offline"
	EventError          = "error"
)

// Envelope is the raw inbound frame. Data stays unparsed until the event
// name selects a payload type.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound frame.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// RoomPayload carries join-room, leave-room, typing and stop-typing.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// SendMessagePayload carries send-message.
type SendMessagePayload struct {
	RoomID  string             `json:"roomId"`
	Content string             `json:"content"`
	Type    models.MessageType `json:"messageType"`
	FileURL string             `json:"fileUrl"`
}

// JoinedRoomPayload acknowledges a join-room to the requester only.
type JoinedRoomPayload struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

// UserPayload announces user-joined, user-left and user-offline.
type UserPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// TypingPayload announces user-typing and user-stop-typing.
type TypingPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
}

// ErrorPayload is sent to the originating connection when an event fails.
type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeEvent(name string, data any) []byte {
	b, err := json.Marshal(Event{Event: name, Data: data})
	if err != nil {
		// Payload types above are all marshalable; this is unreachable in
		// practice but must not take the connection down.
		return []byte(`{"event":"error","data":{"message":"encoding failure"}}`)
	}
	return b
}
