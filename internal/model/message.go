// Package model defines data structures for the chat workspace.
package model

import (
	"time"
)

// Author identifies the side of the exchange that wrote a message.
type Author string

const (
	AuthorUser Author = "user"
	AuthorAI   Author = "ai"
)

// Message is one unit of conversation content. Text is immutable once
// created; retries create a replacement flow rather than editing it.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Author         Author    `json:"author"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`

	// Independent UI-state flags, idempotent to toggle.
	Pinned   bool `json:"pinned"`
	Expanded bool `json:"expanded"`

	// HasError marks a user message whose paired response failed.
	// Cleared when a retry is initiated.
	HasError bool `json:"has_error,omitempty"`

	// OriginalQuestion holds the exact text resubmitted on retry.
	OriginalQuestion string `json:"original_question,omitempty"`

	// Secondary thread attached to an AI message. Lives outside the
	// top-level conversation order; used only by the preview surface.
	SubTopics  []string           `json:"sub_topics,omitempty"`
	SubReplies map[int][]SubReply `json:"sub_replies,omitempty"`
}

// SubReply is one threaded reply under a sub-topic of an AI message.
type SubReply struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers can never mutate store internals.
func (m Message) Clone() Message {
	out := m
	if m.SubTopics != nil {
		out.SubTopics = append([]string(nil), m.SubTopics...)
	}
	if m.SubReplies != nil {
		out.SubReplies = make(map[int][]SubReply, len(m.SubReplies))
		for k, v := range m.SubReplies {
			out.SubReplies[k] = append([]SubReply(nil), v...)
		}
	}
	return out
}

// MessagePatch is a partial field update applied through the store.
// Nil fields are left untouched.
type MessagePatch struct {
	Pinned   *bool
	Expanded *bool
	HasError *bool
}

// SubmitMessageRequest is the request to submit a new question.
type SubmitMessageRequest struct {
	Text string `json:"text"`
}

// SubReplyRequest is the request to reply within a sub-thread.
type SubReplyRequest struct {
	TopicIndex int    `json:"topic_index"`
	Text       string `json:"text"`
}
