// Package store holds the authoritative in-memory conversation state:
// the globally ordered message list plus the conversation index. All
// mutation goes through its API; readers only ever receive copies.
package store

import (
	"fmt"
	"sync"

	"github.com/yuki-ai/chat-workspace/internal/model"
)

// ValidationError is a synchronous rejection that leaves state unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

// Store owns the ordered message list and the conversation index for one
// workspace session.
type Store struct {
	mu sync.RWMutex

	// messages is the global creation order. Messages are never removed
	// individually except by the rewind operation.
	messages   []model.Message
	messageIDs map[string]struct{}

	// conversations preserves insertion order; the map indexes by id.
	conversations []model.Conversation
	convIndex     map[string]struct{}

	// folders preserves first-seen order.
	folders   []string
	folderSet map[string]struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		messageIDs: make(map[string]struct{}),
		convIndex:  make(map[string]struct{}),
		folderSet:  make(map[string]struct{}),
	}
}

// AppendMessage inserts a message at the end of the global order.
func (s *Store) AppendMessage(msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		return &ValidationError{Reason: "message id is empty"}
	}
	if _, exists := s.messageIDs[msg.ID]; exists {
		return &ValidationError{Reason: fmt.Sprintf("duplicate message id %q", msg.ID)}
	}

	s.messages = append(s.messages, msg.Clone())
	s.messageIDs[msg.ID] = struct{}{}
	return nil
}

// UpdateMessage applies a partial field update to exactly one message.
// A missing id is a no-op, not an error.
func (s *Store) UpdateMessage(id string, patch model.MessagePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID != id {
			continue
		}
		if patch.Pinned != nil {
			s.messages[i].Pinned = *patch.Pinned
		}
		if patch.Expanded != nil {
			s.messages[i].Expanded = *patch.Expanded
		}
		if patch.HasError != nil {
			s.messages[i].HasError = *patch.HasError
		}
		return
	}
}

// Message returns a copy of the message with the given id.
func (s *Store) Message(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			return s.messages[i].Clone(), true
		}
	}
	return model.Message{}, false
}

// RemoveMessagesAfter is the rewind operation behind retry: it removes
// every message that occurs after the anchor in global order, belongs to
// the same conversation, and satisfies pred. Everything else, the anchor
// included, survives in its original order. Returns the removed count.
func (s *Store) RemoveMessagesAfter(anchorID, conversationID string, pred func(model.Message) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	anchor := -1
	for i := range s.messages {
		if s.messages[i].ID == anchorID {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return 0
	}

	kept := s.messages[:anchor+1]
	removed := 0
	for _, m := range s.messages[anchor+1:] {
		if m.ConversationID == conversationID && pred(m) {
			delete(s.messageIDs, m.ID)
			removed++
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	return removed
}

// ListByConversation returns the ordered subsequence of messages whose
// conversation matches. An empty id returns the full global order.
func (s *Store) ListByConversation(conversationID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Message, 0, len(s.messages))
	for i := range s.messages {
		if conversationID != "" && s.messages[i].ConversationID != conversationID {
			continue
		}
		out = append(out, s.messages[i].Clone())
	}
	return out
}

// PinnedMessages returns all pinned messages across conversations,
// in global order.
func (s *Store) PinnedMessages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Message
	for i := range s.messages {
		if s.messages[i].Pinned {
			out = append(out, s.messages[i].Clone())
		}
	}
	return out
}

// Len returns the number of messages in the global order.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// AppendSubReply appends a reply to one sub-topic thread of an AI
// message. The thread lives on the message itself, outside the global
// order.
func (s *Store) AppendSubReply(messageID string, topic int, reply model.SubReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID != messageID {
			continue
		}
		if s.messages[i].Author != model.AuthorAI {
			return &ValidationError{Reason: "sub-thread replies attach to AI messages only"}
		}
		if topic < 0 || topic >= len(s.messages[i].SubTopics) {
			return &ValidationError{Reason: fmt.Sprintf("sub-topic %d out of range", topic)}
		}
		if s.messages[i].SubReplies == nil {
			s.messages[i].SubReplies = make(map[int][]model.SubReply)
		}
		s.messages[i].SubReplies[topic] = append(s.messages[i].SubReplies[topic], reply)
		return nil
	}
	return &ValidationError{Reason: fmt.Sprintf("message %q not found", messageID)}
}

// AddConversation registers a new conversation and implicitly creates
// its folder on first reference.
func (s *Store) AddConversation(conv model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.ID == "" {
		return &ValidationError{Reason: "conversation id is empty"}
	}
	if _, exists := s.convIndex[conv.ID]; exists {
		return &ValidationError{Reason: fmt.Sprintf("duplicate conversation id %q", conv.ID)}
	}

	s.conversations = append(s.conversations, conv)
	s.convIndex[conv.ID] = struct{}{}
	if conv.Folder != "" {
		s.addFolderLocked(conv.Folder)
	}
	return nil
}

// Conversation returns the conversation with the given id.
func (s *Store) Conversation(id string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.conversations {
		if c.ID == id {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// ConversationByAnchor resolves a conversation from its anchoring user
// message id, used when resuming from the sidebar.
func (s *Store) ConversationByAnchor(messageID string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.conversations {
		if c.MessageID == messageID {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// Conversations returns all conversations in insertion order.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// RenameConversation sets a new title. Returns false if the id is unknown.
func (s *Store) RenameConversation(id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i].Title = title
			return true
		}
	}
	return false
}

// DeleteConversation removes the conversation record from the index.
// Messages keep their conversation id and stay addressable; deletion
// does not cascade.
func (s *Store) DeleteConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			delete(s.convIndex, id)
			return true
		}
	}
	return false
}

// AddFolder registers a folder name. Adding an existing name is a no-op.
func (s *Store) AddFolder(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addFolderLocked(name)
}

func (s *Store) addFolderLocked(name string) {
	if _, exists := s.folderSet[name]; exists {
		return
	}
	s.folders = append(s.folders, name)
	s.folderSet[name] = struct{}{}
}

// Folders returns folder names in first-seen order.
func (s *Store) Folders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.folders))
	copy(out, s.folders)
	return out
}
