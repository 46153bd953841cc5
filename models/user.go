package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. Password is stored hashed and never leaves
// the server in JSON responses. IsOnline and LastSeen are presence fields:
// they are mutated only by the session coordinator on connect/disconnect.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsOnline  bool               `bson:"isOnline" json:"isOnline"`
	LastSeen  time.Time          `bson:"lastSeen,omitempty" json:"lastSeen,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrorResponse is the JSON body returned for failed HTTP requests.
type ErrorResponse struct {
	Message string `json:"message"`
}
