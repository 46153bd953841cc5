package utils

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateJWT(t *testing.T) {
	userID := primitive.NewObjectID()
	username := "testuser"
	secret := "test-secret"

	tokenString, err := GenerateJWT(userID, username, secret)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		_, ok := token.Method.(*jwt.SigningMethodHMAC)
		assert.True(t, ok, "unexpected signing method")
		return []byte(secret), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, userID.Hex(), claims["userId"])
	assert.Equal(t, username, claims["username"])

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.Greater(t, int64(exp), time.Now().Unix())
}

func TestGetUserIDFromToken(t *testing.T) {
	userID := primitive.NewObjectID()
	secret := "test-secret"
	tokenString, err := GenerateJWT(userID, "testuser", secret)
	require.NoError(t, err)

	got, err := GetUserIDFromToken(tokenString, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = GetUserIDFromToken(tokenString, "wrong-secret")
	assert.Error(t, err)

	_, err = GetUserIDFromToken("not-a-token", secret)
	assert.Error(t, err)
}

func TestGetUserIDFromContext(t *testing.T) {
	userID := primitive.NewObjectID()
	ctx := context.WithValue(context.Background(), UserIDKey, userID)

	got, err := GetUserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = GetUserIDFromContext(context.Background())
	assert.Error(t, err)
}
