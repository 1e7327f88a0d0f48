// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yuki-ai/chat-workspace/internal/dispatch"
	"github.com/yuki-ai/chat-workspace/internal/session"
	"github.com/yuki-ai/chat-workspace/internal/store"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeDomainError maps core errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *store.ValidationError
	var authErr *session.AuthError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, dispatch.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &authErr):
		writeError(w, http.StatusUnauthorized, authErr.Reason)
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
