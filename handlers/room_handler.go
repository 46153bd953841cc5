package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"chatbug/backend/chat"
	"chatbug/backend/database"
	"chatbug/backend/models"
	"chatbug/backend/utils"

	"github.com/gorilla/mux"
)

// RoomHandler serves the room and message-history CRUD surface. The
// real-time path never goes through here; both paths share the same stores.
type RoomHandler struct {
	Rooms    *database.RoomStore
	Messages *database.MessageStore
}

// CreateRoomRequest is the body of POST /api/rooms.
type CreateRoomRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        models.RoomType `json:"type"`
}

// List returns every room the caller can access, most recently active first.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rooms, err := h.Rooms.ListAccessible(r.Context(), userID.Hex())
	if err != nil {
		log.Printf("Error listing rooms for user %s: %v", userID.Hex(), err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	sendJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// Create makes a new room with the caller as its admin member.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || len(req.Name) > 100 {
		sendJSONError(w, "Room name must be 1-100 characters", http.StatusBadRequest)
		return
	}
	if len(req.Description) > 500 {
		sendJSONError(w, "Description must be at most 500 characters", http.StatusBadRequest)
		return
	}
	switch req.Type {
	case "", models.RoomPublic, models.RoomPrivate:
	default:
		sendJSONError(w, "Room type must be public or private", http.StatusBadRequest)
		return
	}

	room, err := h.Rooms.CreateRoom(r.Context(), req.Name, req.Description, req.Type, userID)
	if err != nil {
		log.Printf("Error creating room: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]any{"room": room})
}

// Join adds the caller as a durable member of a room.
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.Rooms.JoinRoom(r.Context(), mux.Vars(r)["id"], userID.Hex())
	switch {
	case errors.Is(err, chat.ErrNotFound):
		sendJSONError(w, "Room not found", http.StatusNotFound)
		return
	case errors.Is(err, chat.ErrAlreadyMember):
		sendJSONError(w, "Already a member of this room", http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("Error joining room: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"room": room})
}

// History returns one message page of an accessible room, oldest-first,
// with a hasMore flag. ?before= (RFC 3339) selects messages older than the
// given instant; ?limit= caps the page size.
func (h *RoomHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.Rooms.RoomByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, chat.ErrNotFound) {
		sendJSONError(w, "Room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error finding room: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !room.AccessibleBy(userID) {
		sendJSONError(w, "Access denied", http.StatusForbidden)
		return
	}

	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			sendJSONError(w, "Invalid before timestamp", http.StatusBadRequest)
			return
		}
	}
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 100 {
			sendJSONError(w, "Limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	messages, hasMore, err := h.Messages.Page(r.Context(), room.ID.Hex(), before, limit)
	if err != nil {
		log.Printf("Error paging messages for room %s: %v", room.ID.Hex(), err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	sendJSON(w, http.StatusOK, map[string]any{"messages": messages, "hasMore": hasMore})
}
