package workspace

import (
	"time"

	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/internal/store"
)

// Seed loads a small demo data set into a fresh store so the surface
// has something to render before the first real question.
func Seed(st *store.Store) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	msgs := []model.Message{
		{
			ID:             "seed-m1",
			ConversationID: "seed-q1",
			Author:         model.AuthorUser,
			Text:           "What changed in the Q4 onboarding flow?",
			CreatedAt:      base,
			OriginalQuestion: "What changed in the Q4 onboarding flow?",
		},
		{
			ID:             "seed-m2",
			ConversationID: "seed-q1",
			Author:         model.AuthorAI,
			Text:           "The Q4 onboarding flow added an invite step and moved billing setup behind the first project creation.",
			CreatedAt:      base.Add(1 * time.Minute),
		},
		{
			ID:             "seed-m3",
			ConversationID: "seed-q2",
			Author:         model.AuthorUser,
			Text:           "Summarize the open follow-ups from last week's review.",
			CreatedAt:      base.Add(2 * time.Minute),
			OriginalQuestion: "Summarize the open follow-ups from last week's review.",
		},
		{
			ID:             "seed-m4",
			ConversationID: "seed-q2",
			Author:         model.AuthorAI,
			Text:           "Three follow-ups remain open: the retry copy change, the folder rename shortcut, and the pinned-message export.",
			CreatedAt:      base.Add(3 * time.Minute),
			SubTopics: []string{
				"Retry copy change",
				"Folder rename shortcut",
				"Pinned-message export",
			},
		},
	}

	for _, m := range msgs {
		_ = st.AppendMessage(m)
	}

	convs := []model.Conversation{
		{ID: "seed-q1", Title: "What changed in the Q4 onboarding flow?", Folder: "General", MessageID: "seed-m1", CreatedAt: base},
		{ID: "seed-q2", Title: "Summarize the open follow-ups from last week's review.", Folder: "Follow-ups", MessageID: "seed-m3", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, c := range convs {
		_ = st.AddConversation(c)
	}

	for _, f := range []string{"General", "Follow-ups", "Notes"} {
		st.AddFolder(f)
	}
}
