package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuki-ai/chat-workspace/internal/model"
)

func newMessage(id, conversationID string, author model.Author) model.Message {
	return model.Message{
		ID:             id,
		ConversationID: conversationID,
		Author:         author,
		Text:           "text for " + id,
		CreatedAt:      time.Now(),
	}
}

func TestAppendMessagePreservesGlobalOrder(t *testing.T) {
	s := New()

	for i := 0; i < 10; i++ {
		conv := "a"
		if i%2 == 1 {
			conv = "b"
		}
		require.NoError(t, s.AppendMessage(newMessage(fmt.Sprintf("m%d", i), conv, model.AuthorUser)))
	}

	all := s.ListByConversation("")
	require.Len(t, all, 10)
	for i, m := range all {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.ID)
	}

	// Conversation filtering returns a subsequence of the global order.
	onlyA := s.ListByConversation("a")
	require.Len(t, onlyA, 5)
	for i := 1; i < len(onlyA); i++ {
		assert.Less(t, onlyA[i-1].ID, onlyA[i].ID)
	}
	for _, m := range onlyA {
		assert.Equal(t, "a", m.ConversationID)
	}
}

func TestAppendMessageRejectsDuplicateID(t *testing.T) {
	s := New()
	require.NoError(t, s.AppendMessage(newMessage("m1", "a", model.AuthorUser)))

	err := s.AppendMessage(newMessage("m1", "b", model.AuthorUser))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 1, s.Len())
}

func TestListByConversationIsolation(t *testing.T) {
	s := New()
	// Interleave two conversations of 3 messages each.
	ids := []struct{ id, conv string }{
		{"m1", "a"}, {"m2", "b"}, {"m3", "a"}, {"m4", "b"}, {"m5", "a"}, {"m6", "b"},
	}
	for _, it := range ids {
		require.NoError(t, s.AppendMessage(newMessage(it.id, it.conv, model.AuthorUser)))
	}

	onlyA := s.ListByConversation("a")
	require.Len(t, onlyA, 3)
	assert.Equal(t, "m1", onlyA[0].ID)
	assert.Equal(t, "m3", onlyA[1].ID)
	assert.Equal(t, "m5", onlyA[2].ID)

	for _, m := range s.ListByConversation("b") {
		assert.NotEqual(t, "a", m.ConversationID)
	}
}

func TestUpdateMessagePatchesAndIgnoresUnknownID(t *testing.T) {
	s := New()
	require.NoError(t, s.AppendMessage(newMessage("m1", "a", model.AuthorUser)))

	pinned := true
	s.UpdateMessage("m1", model.MessagePatch{Pinned: &pinned})
	msg, ok := s.Message("m1")
	require.True(t, ok)
	assert.True(t, msg.Pinned)
	assert.False(t, msg.Expanded)

	// Unknown id is a no-op, not an error.
	s.UpdateMessage("missing", model.MessagePatch{Pinned: &pinned})
	assert.Equal(t, 1, s.Len())
}

func TestRemoveMessagesAfterRewindsTrailingAIOnly(t *testing.T) {
	s := New()
	isAI := func(m model.Message) bool { return m.Author == model.AuthorAI }

	require.NoError(t, s.AppendMessage(newMessage("m1", "a", model.AuthorAI)))
	require.NoError(t, s.AppendMessage(newMessage("m2", "a", model.AuthorUser)))
	require.NoError(t, s.AppendMessage(newMessage("m3", "b", model.AuthorAI)))
	require.NoError(t, s.AppendMessage(newMessage("m4", "a", model.AuthorAI)))
	require.NoError(t, s.AppendMessage(newMessage("m5", "a", model.AuthorUser)))
	require.NoError(t, s.AppendMessage(newMessage("m6", "a", model.AuthorAI)))

	removed := s.RemoveMessagesAfter("m2", "a", isAI)
	assert.Equal(t, 2, removed)

	var surviving []string
	for _, m := range s.ListByConversation("") {
		surviving = append(surviving, m.ID)
	}
	// The anchor, everything before it, the other conversation's AI
	// message, and the later user message all survive in order.
	assert.Equal(t, []string{"m1", "m2", "m3", "m5"}, surviving)

	// Removed ids are free for reuse.
	require.NoError(t, s.AppendMessage(newMessage("m4", "a", model.AuthorAI)))
}

func TestRemoveMessagesAfterUnknownAnchorIsNoop(t *testing.T) {
	s := New()
	require.NoError(t, s.AppendMessage(newMessage("m1", "a", model.AuthorAI)))

	removed := s.RemoveMessagesAfter("missing", "a", func(model.Message) bool { return true })
	assert.Zero(t, removed)
	assert.Equal(t, 1, s.Len())
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	msg := newMessage("m1", "a", model.AuthorAI)
	msg.SubTopics = []string{"first"}
	require.NoError(t, s.AppendMessage(msg))

	out := s.ListByConversation("")
	out[0].Text = "mutated"
	out[0].SubTopics[0] = "mutated"

	fresh, ok := s.Message("m1")
	require.True(t, ok)
	assert.Equal(t, "text for m1", fresh.Text)
	assert.Equal(t, "first", fresh.SubTopics[0])
}

func TestPinnedMessages(t *testing.T) {
	s := New()
	require.NoError(t, s.AppendMessage(newMessage("m1", "a", model.AuthorAI)))
	require.NoError(t, s.AppendMessage(newMessage("m2", "b", model.AuthorAI)))

	pinned := true
	s.UpdateMessage("m2", model.MessagePatch{Pinned: &pinned})

	got := s.PinnedMessages()
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].ID)
}

func TestAppendSubReplyValidation(t *testing.T) {
	s := New()
	ai := newMessage("m1", "a", model.AuthorAI)
	ai.SubTopics = []string{"topic zero"}
	require.NoError(t, s.AppendMessage(ai))
	require.NoError(t, s.AppendMessage(newMessage("m2", "a", model.AuthorUser)))

	reply := model.SubReply{ID: "r1", Author: model.AuthorUser, Text: "hi", CreatedAt: time.Now()}

	require.NoError(t, s.AppendSubReply("m1", 0, reply))
	msg, _ := s.Message("m1")
	require.Len(t, msg.SubReplies[0], 1)

	var validationErr *ValidationError
	assert.ErrorAs(t, s.AppendSubReply("m1", 3, reply), &validationErr)
	assert.ErrorAs(t, s.AppendSubReply("m2", 0, reply), &validationErr)
	assert.ErrorAs(t, s.AppendSubReply("missing", 0, reply), &validationErr)
}

func TestConversationLifecycle(t *testing.T) {
	s := New()
	conv := model.Conversation{ID: "q1", Title: "First question", Folder: "General", MessageID: "m1"}
	require.NoError(t, s.AddConversation(conv))

	var validationErr *ValidationError
	assert.ErrorAs(t, s.AddConversation(conv), &validationErr)

	got, ok := s.Conversation("q1")
	require.True(t, ok)
	assert.Equal(t, "First question", got.Title)

	byAnchor, ok := s.ConversationByAnchor("m1")
	require.True(t, ok)
	assert.Equal(t, "q1", byAnchor.ID)

	assert.True(t, s.RenameConversation("q1", "Renamed"))
	got, _ = s.Conversation("q1")
	assert.Equal(t, "Renamed", got.Title)

	assert.False(t, s.RenameConversation("missing", "x"))
}

func TestDeleteConversationDoesNotCascade(t *testing.T) {
	s := New()
	require.NoError(t, s.AddConversation(model.Conversation{ID: "q1", Title: "t", MessageID: "m1"}))
	require.NoError(t, s.AppendMessage(newMessage("m1", "q1", model.AuthorUser)))
	require.NoError(t, s.AppendMessage(newMessage("m2", "q1", model.AuthorAI)))

	require.True(t, s.DeleteConversation("q1"))
	assert.False(t, s.DeleteConversation("q1"))

	_, ok := s.Conversation("q1")
	assert.False(t, ok)

	// Messages stay addressable by conversation id.
	assert.Len(t, s.ListByConversation("q1"), 2)
}

func TestFoldersFirstSeenOrder(t *testing.T) {
	s := New()
	require.NoError(t, s.AddConversation(model.Conversation{ID: "q1", Folder: "General"}))
	require.NoError(t, s.AddConversation(model.Conversation{ID: "q2", Folder: "Notes"}))
	s.AddFolder("General") // duplicate is a no-op
	s.AddFolder("Extra")

	assert.Equal(t, []string{"General", "Notes", "Extra"}, s.Folders())
}
