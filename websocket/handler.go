// Package websocket adapts the session coordinator to gorilla/websocket
// connections.
package websocket

import (
	"context"
	"log"
	"net/http"

	"chatbug/backend/chat"
	"chatbug/backend/models"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the HTTP layer.
		return true
	},
}

// IdentityVerifier resolves the handshake credential to a user.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// Handler upgrades authenticated requests to WebSocket sessions. A missing
// or invalid token refuses the connection before the upgrade; no event loop
// ever starts for an unauthenticated peer.
type Handler struct {
	verifier    IdentityVerifier
	coordinator *chat.Coordinator
}

func NewHandler(verifier IdentityVerifier, coordinator *chat.Coordinator) *Handler {
	return &Handler{verifier: verifier, coordinator: coordinator}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	user, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		log.Printf("WebSocket handshake refused: %v", err)
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := newClient(conn, h.coordinator)
	client.session = h.coordinator.Connect(r.Context(), *user, client)

	go client.writePump()
	client.readPump()
}
