package model

import (
	"time"
)

// EventType represents the type of workspace event.
type EventType string

const (
	EventTypeMessageAppended     EventType = "message_appended"
	EventTypeDispatchFailed      EventType = "dispatch_failed"
	EventTypeConversationCreated EventType = "conversation_created"
	EventTypeConversationDeleted EventType = "conversation_deleted"
)

// WorkspaceEvent represents a lifecycle event emitted by a workspace.
type WorkspaceEvent struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"session_id"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Type           EventType      `json:"type"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
