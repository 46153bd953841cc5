package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType describes the kind of content a message carries.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// Message is a persisted chat message. The sender's display fields are
// denormalized onto the record so broadcasts and history pages render
// without an extra lookup. Messages are immutable once stored; ID and
// CreatedAt are assigned by the store, never by the client.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomID         primitive.ObjectID `bson:"room" json:"roomId"`
	SenderID       primitive.ObjectID `bson:"sender" json:"senderId"`
	SenderUsername string             `bson:"senderUsername" json:"senderUsername"`
	SenderAvatar   string             `bson:"senderAvatar,omitempty" json:"senderAvatar,omitempty"`
	Type           MessageType        `bson:"messageType" json:"messageType"`
	Content        string             `bson:"content" json:"content"`
	FileURL        string             `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
