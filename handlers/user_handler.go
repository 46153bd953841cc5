package handlers

import (
	"errors"
	"log"
	"net/http"

	"chatbug/backend/chat"
	"chatbug/backend/database"
	"chatbug/backend/models"

	"github.com/gorilla/mux"
)

// UserHandler serves user search and profiles.
type UserHandler struct {
	Users *database.UserStore
}

// List returns users matching an optional ?search= substring.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.Search(r.Context(), r.URL.Query().Get("search"), 20)
	if err != nil {
		log.Printf("Error searching users: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	sendJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Get returns one user's profile, including presence fields.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.FindByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, chat.ErrNotFound) {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error finding user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"user": user})
}
