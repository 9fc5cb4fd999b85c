package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/charta/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps job subsystem errors onto HTTP responses so every
// endpoint reports the same shapes.
func WriteServiceError(w http.ResponseWriter, err error) error {
	if ve, ok := models.IsValidation(err); ok {
		return WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status": "error",
			"kind":   string(ve.Kind),
			"field":  ve.Field,
			"error":  ve.Message,
		})
	}
	if nr, ok := models.IsNotReady(err); ok {
		return WriteJSON(w, http.StatusConflict, map[string]interface{}{
			"status":     "error",
			"job_status": string(nr.Status),
			"error":      nr.Error(),
		})
	}
	switch {
	case errors.Is(err, models.ErrCapacityExceeded):
		return WriteError(w, http.StatusServiceUnavailable, "print queue at capacity, retry later")
	case errors.Is(err, models.ErrJobNotFound):
		return WriteError(w, http.StatusNotFound, "print job not found")
	case errors.Is(err, models.ErrArtifactNotFound):
		return WriteError(w, http.StatusNotFound, "print result no longer available")
	case errors.Is(err, models.ErrLayoutNotFound):
		return WriteError(w, http.StatusNotFound, "layout not found")
	default:
		return WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
