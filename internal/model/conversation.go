package model

import (
	"time"
)

// DefaultFolder groups conversations that were never assigned a folder.
const DefaultFolder = "Ungrouped"

// titleLimit is the number of leading question characters used for a
// derived conversation title.
const titleLimit = 80

// Conversation is the metadata record for one exchange thread. It is
// minted lazily on the first send of a question, never per message.
type Conversation struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Folder is an optional grouping key, defaulted from the active
	// folder at creation time.
	Folder string `json:"folder,omitempty"`

	// MessageID anchors the conversation to its originating user
	// message, used for jump targets and folder recovery on resume.
	MessageID string `json:"message_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DeriveTitle builds a conversation title from the first question,
// truncated with an ellipsis when it runs long.
func DeriveTitle(question string) string {
	runes := []rune(question)
	if len(runes) <= titleLimit {
		return question
	}
	return string(runes[:titleLimit]) + "..."
}

// FolderGroup is one folder partition of the conversation index.
type FolderGroup struct {
	Folder        string         `json:"folder"`
	Conversations []Conversation `json:"conversations"`
}

// RenameConversationRequest is the request to rename a conversation.
type RenameConversationRequest struct {
	Title string `json:"title"`
}

// CreateFolderRequest is the request to create a project folder.
type CreateFolderRequest struct {
	Name string `json:"name"`
}
