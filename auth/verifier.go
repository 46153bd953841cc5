// Package auth resolves bearer credentials to user identities for the
// connection layer.
package auth

import (
	"context"
	"fmt"

	"chatbug/backend/chat"
	"chatbug/backend/models"
	"chatbug/backend/utils"
)

// UserFinder looks up the account a token claims to belong to.
type UserFinder interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
}

// Verifier validates a JWT presented at connection handshake and resolves
// it to a live user record. Any failure maps to chat.ErrAuthenticationFailed
// so the transport refuses the connection without leaking the cause.
type Verifier struct {
	users  UserFinder
	secret string
}

func NewVerifier(users UserFinder, secret string) *Verifier {
	return &Verifier{users: users, secret: secret}
}

// Verify returns the user a valid token belongs to.
func (v *Verifier) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", chat.ErrAuthenticationFailed)
	}
	userID, err := utils.GetUserIDFromToken(token, v.secret)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", chat.ErrAuthenticationFailed)
	}
	user, err := v.users.FindByID(ctx, userID.Hex())
	if err != nil {
		return nil, fmt.Errorf("unknown user: %w", chat.ErrAuthenticationFailed)
	}
	return user, nil
}
