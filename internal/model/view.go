package model

// ViewMode is the explicit display state of a workspace. It replaces the
// current-conversation/new-chat flag pair with a single enum.
type ViewMode string

const (
	// ViewNewChat shows an empty surface awaiting the first question.
	ViewNewChat ViewMode = "new_chat"
	// ViewAllMessages shows the full global message order.
	ViewAllMessages ViewMode = "all"
	// ViewConversation shows one conversation's subsequence.
	ViewConversation ViewMode = "conversation"
)

// WorkspaceSnapshot is the read-only view handed to the presentation
// surface after every intent.
type WorkspaceSnapshot struct {
	View               ViewMode       `json:"view"`
	ActiveConversation string         `json:"active_conversation,omitempty"`
	ActiveFolder       string         `json:"active_folder,omitempty"`
	Messages           []Message      `json:"messages"`
	Conversations      []Conversation `json:"conversations"`
	Folders            []string       `json:"folders"`
	Busy               bool           `json:"busy"`
}
