package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yuki-ai/chat-workspace/internal/middleware"
	"github.com/yuki-ai/chat-workspace/internal/session"
	"github.com/yuki-ai/chat-workspace/internal/workspace"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	provider session.Provider
	registry *workspace.Registry
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(provider session.Provider, registry *workspace.Registry, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		registry: registry,
		logger:   log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.provider.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess != nil {
		h.registry.Drop(sess.SessionID)
		if err := h.provider.Logout(r.Context(), sess.Token); err != nil {
			h.logger.Warn("logout failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
