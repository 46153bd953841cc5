package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomType distinguishes rooms anyone may read from invite-only ones.
type RoomType string

const (
	RoomPublic  RoomType = "public"
	RoomPrivate RoomType = "private"
)

// MemberRole is the role a user holds inside a room.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// RoomMember ties a user to a room with a role. The creator is always the
// first member, with the admin role.
type RoomMember struct {
	UserID primitive.ObjectID `bson:"user" json:"userId"`
	Role   MemberRole         `bson:"role" json:"role"`
}

// Room is a chat room. Membership is append-only; LastActivity moves forward
// exactly when a message is persisted to the room.
type Room struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Type         RoomType           `bson:"type" json:"type"`
	CreatorID    primitive.ObjectID `bson:"creator" json:"creatorId"`
	Members      []RoomMember       `bson:"members" json:"members"`
	LastActivity time.Time          `bson:"lastActivity" json:"lastActivity"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasMember reports whether the user is in the room's member list.
func (r *Room) HasMember(userID primitive.ObjectID) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// AccessibleBy reports whether the user may read and post to the room:
// members always, everyone else only when the room is public.
func (r *Room) AccessibleBy(userID primitive.ObjectID) bool {
	return r.Type == RoomPublic || r.HasMember(userID)
}
