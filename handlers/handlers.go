package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"chatbug/backend/models"
)

// sendJSONError writes a JSON error body with the given status.
func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Message: message}); err != nil {
		log.Printf("Failed to write error response: %v", err)
	}
}

// sendJSON writes a JSON success body with the given status.
func sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
