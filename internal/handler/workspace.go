package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuki-ai/chat-workspace/internal/dispatch"
	"github.com/yuki-ai/chat-workspace/internal/middleware"
	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/internal/subthread"
	"github.com/yuki-ai/chat-workspace/internal/workspace"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
)

// WorkspaceHandler forwards chat-surface intents into the session's
// workspace and returns updated snapshots for rendering.
type WorkspaceHandler struct {
	registry *workspace.Registry
	logger   *logger.Logger
}

// NewWorkspaceHandler creates a new workspace handler.
func NewWorkspaceHandler(registry *workspace.Registry, log *logger.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		registry: registry,
		logger:   log,
	}
}

func (h *WorkspaceHandler) ws(r *http.Request) *workspace.Workspace {
	return h.registry.Get(middleware.GetSession(r.Context()))
}

// submitResponse pairs a dispatch result with the refreshed snapshot.
type submitResponse struct {
	Result   *dispatch.Result        `json:"result"`
	Snapshot model.WorkspaceSnapshot `json:"snapshot"`
}

// Snapshot handles GET /api/v1/workspace
func (h *WorkspaceHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ws(r).Snapshot())
}

// Submit handles POST /api/v1/workspace/messages
func (h *WorkspaceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	result, err := ws.Submit(r.Context(), req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Result:   result,
		Snapshot: ws.Snapshot(),
	})
}

// Retry handles POST /api/v1/workspace/messages/{id}/retry
func (h *WorkspaceHandler) Retry(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	result, err := ws.Retry(r.Context(), messageID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Result:   result,
		Snapshot: ws.Snapshot(),
	})
}

// TogglePin handles POST /api/v1/workspace/messages/{id}/pin
func (h *WorkspaceHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	ws.TogglePin(messageID)
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

// ToggleExpand handles POST /api/v1/workspace/messages/{id}/expand
func (h *WorkspaceHandler) ToggleExpand(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	ws.ToggleExpand(messageID)
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

// subReplyResponse pairs a sub-thread result with the owning message.
type subReplyResponse struct {
	Result  *subthread.Result `json:"result"`
	Message model.Message     `json:"message"`
}

// SubReply handles POST /api/v1/workspace/messages/{id}/replies
func (h *WorkspaceHandler) SubReply(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SubReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	result, err := ws.SubReply(r.Context(), messageID, req.TopicIndex, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	msg, _ := ws.Store().Message(messageID)
	writeJSON(w, http.StatusCreated, subReplyResponse{
		Result:  result,
		Message: msg,
	})
}

// Pinned handles GET /api/v1/workspace/messages/pinned
func (h *WorkspaceHandler) Pinned(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": h.ws(r).PinnedMessages(),
	})
}

// Summary handles GET /api/v1/workspace/messages/summary
func (h *WorkspaceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": h.ws(r).AISummary(),
	})
}

// Jump handles GET /api/v1/workspace/messages/{id}/jump
func (h *WorkspaceHandler) Jump(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"position": h.ws(r).JumpTo(messageID),
	})
}

// NewChat handles POST /api/v1/workspace/chat/new
func (h *WorkspaceHandler) NewChat(w http.ResponseWriter, r *http.Request) {
	ws := h.ws(r)
	ws.NewChat()
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

// Open handles POST /api/v1/workspace/chat/open/{messageID}
func (h *WorkspaceHandler) Open(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws := h.ws(r)
	if err := ws.OpenByMessage(messageID); err != nil {
		writeError(w, http.StatusNotFound, "no conversation anchored to message")
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}
