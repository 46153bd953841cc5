package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chatbug/backend/chat"
	"chatbug/backend/database"
	"chatbug/backend/models"
	"chatbug/backend/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	Users     *database.UserStore
	JWTSecret string
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account with a bcrypt-hashed password and returns a
// signed token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Username == "" || req.Password == "" {
		sendJSONError(w, "Email, username, and password are required", http.StatusBadRequest)
		return
	}

	// Friendly conflict responses; the unique indexes are the real guard.
	if _, err := h.Users.FindByEmail(r.Context(), req.Email); err == nil {
		sendJSONError(w, "Email already registered", http.StatusConflict)
		return
	} else if !errors.Is(err, chat.ErrNotFound) {
		log.Printf("Error checking existing email: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if _, err := h.Users.FindByUsername(r.Context(), req.Username); err == nil {
		sendJSONError(w, "Username already taken", http.StatusConflict)
		return
	} else if !errors.Is(err, chat.ErrNotFound) {
		log.Printf("Error checking existing username: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.Users.Create(r.Context(), models.User{
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashedPassword),
		Avatar:   req.Avatar,
	})
	if err != nil {
		log.Printf("Error creating user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Username, h.JWTSecret)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login verifies credentials and returns a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, chat.ErrNotFound) {
		sendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("Error finding user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		sendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Username, h.JWTSecret)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
