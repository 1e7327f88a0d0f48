// Package index derives navigation views over store snapshots. It never
// mutates anything; every function is a pure query.
package index

import (
	"strings"

	"github.com/yuki-ai/chat-workspace/internal/model"
)

// GroupByFolder partitions conversations by folder, preserving both the
// first-seen group order and the store insertion order within a group.
// Conversations without a folder fall under the default label.
func GroupByFolder(items []model.Conversation) []model.FolderGroup {
	var groups []model.FolderGroup
	byFolder := make(map[string]int)

	for _, it := range items {
		key := it.Folder
		if key == "" {
			key = model.DefaultFolder
		}
		idx, ok := byFolder[key]
		if !ok {
			idx = len(groups)
			byFolder[key] = idx
			groups = append(groups, model.FolderGroup{Folder: key})
		}
		groups[idx].Conversations = append(groups[idx].Conversations, it)
	}
	return groups
}

// Search filters conversations by case-insensitive substring match over
// the title. An empty query returns everything.
func Search(items []model.Conversation, query string) []model.Conversation {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	var out []model.Conversation
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Title), q) {
			out = append(out, it)
		}
	}
	return out
}

// NumberWithinGroup returns the 1-based display position of a
// conversation inside its group's filtered list, or 0 when absent. The
// numbering is recomputed per filter and is not stable across searches.
func NumberWithinGroup(group []model.Conversation, id string) int {
	for i, it := range group {
		if it.ID == id {
			return i + 1
		}
	}
	return 0
}

// ResolveJumpTarget finds a message's position within the currently
// displayed list for scroll-to-target. Returns -1 when the message is
// not displayed, in which case the jump is a no-op.
func ResolveJumpTarget(displayed []model.Message, messageID string) int {
	for i, m := range displayed {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}

// AISummary returns the AI-authored subsequence of the displayed list,
// used by the preview sidebar.
func AISummary(displayed []model.Message) []model.Message {
	var out []model.Message
	for _, m := range displayed {
		if m.Author == model.AuthorAI {
			out = append(out, m)
		}
	}
	return out
}
