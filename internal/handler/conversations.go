package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuki-ai/chat-workspace/internal/middleware"
	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/internal/workspace"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
)

// ConversationHandler handles the conversation index endpoints.
type ConversationHandler struct {
	registry *workspace.Registry
	logger   *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(registry *workspace.Registry, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		registry: registry,
		logger:   log,
	}
}

func (h *ConversationHandler) ws(r *http.Request) *workspace.Workspace {
	return h.registry.Get(middleware.GetSession(r.Context()))
}

// listResponse carries the folder-grouped, optionally filtered index.
type listResponse struct {
	Groups []model.FolderGroup `json:"groups"`
	Query  string              `json:"query,omitempty"`
}

// List handles GET /api/v1/conversations?q=
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, listResponse{
		Groups: h.ws(r).Search(query),
		Query:  query,
	})
}

// Rename handles PUT /api/v1/conversations/{id}
func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	if !ws.RenameConversation(conversationID, req.Title) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

// Delete handles DELETE /api/v1/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.ws(r).DeleteConversation(conversationID) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateFolder handles POST /api/v1/folders
func (h *ConversationHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateFolderName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	ws.CreateFolder(req.Name)
	writeJSON(w, http.StatusCreated, ws.Snapshot())
}
