package handler

import (
	"net/http"

	"github.com/yuki-ai/chat-workspace/internal/events"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	events        *events.Publisher
	eventsEnabled bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pub *events.Publisher, eventsEnabled bool) *HealthHandler {
	return &HealthHandler{
		events:        pub,
		eventsEnabled: eventsEnabled,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.eventsEnabled && !h.events.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
