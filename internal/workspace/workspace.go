// Package workspace assembles the per-session core: the store, the
// dispatch pipelines, and the explicit view state. It is the surface
// the presentation layer talks to; every intent returns an updated
// read-only snapshot.
package workspace

import (
	"context"
	"sync"

	"github.com/yuki-ai/chat-workspace/internal/dispatch"
	"github.com/yuki-ai/chat-workspace/internal/index"
	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/internal/store"
	"github.com/yuki-ai/chat-workspace/internal/subthread"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
)

// Workspace is one authenticated session's conversation state.
type Workspace struct {
	store    *store.Store
	pipeline *dispatch.Pipeline
	threads  *subthread.Pipeline
	logger   *logger.Logger

	mu           sync.Mutex
	view         model.ViewMode
	activeFolder string
	draft        string
}

// New creates a workspace for one session.
func New(st *store.Store, pipeline *dispatch.Pipeline, threads *subthread.Pipeline, log *logger.Logger) *Workspace {
	w := &Workspace{
		store:    st,
		pipeline: pipeline,
		threads:  threads,
		logger:   log,
		view:     model.ViewNewChat,
	}
	if folders := st.Folders(); len(folders) > 0 {
		w.activeFolder = folders[0]
	}
	return w
}

// SetDraft stores the compose-box draft. Drafts never create
// conversations; only a send does.
func (w *Workspace) SetDraft(text string) {
	w.mu.Lock()
	w.draft = text
	w.mu.Unlock()
}

// Draft returns the current compose-box draft.
func (w *Workspace) Draft() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Submit dispatches a question in the current conversation context and
// clears the draft. A submit while one is in flight returns
// dispatch.ErrBusy and changes nothing.
func (w *Workspace) Submit(ctx context.Context, text string) (*dispatch.Result, error) {
	w.mu.Lock()
	folder := w.activeFolder
	w.mu.Unlock()

	res, err := w.pipeline.Submit(ctx, text, folder)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.view = model.ViewConversation
	w.draft = "" // fresh sends clear the compose box; retries do not
	w.mu.Unlock()
	return res, nil
}

// Retry re-dispatches an error-flagged user message. The draft is left
// untouched.
func (w *Workspace) Retry(ctx context.Context, messageID string) (*dispatch.Result, error) {
	return w.pipeline.Retry(ctx, messageID)
}

// SubReply sends a threaded reply inside a sub-topic of an AI message.
func (w *Workspace) SubReply(ctx context.Context, messageID string, topic int, text string) (*subthread.Result, error) {
	return w.threads.Reply(ctx, messageID, topic, text)
}

// ToggleExpand flips the expanded flag on one message.
func (w *Workspace) ToggleExpand(messageID string) {
	if msg, ok := w.store.Message(messageID); ok {
		flipped := !msg.Expanded
		w.store.UpdateMessage(messageID, model.MessagePatch{Expanded: &flipped})
	}
}

// TogglePin flips the pinned flag on one message.
func (w *Workspace) TogglePin(messageID string) {
	if msg, ok := w.store.Message(messageID); ok {
		flipped := !msg.Pinned
		w.store.UpdateMessage(messageID, model.MessagePatch{Pinned: &flipped})
	}
}

// NewChat leaves the active conversation and shows the empty surface.
func (w *Workspace) NewChat() {
	w.pipeline.SetActiveConversation("")
	w.mu.Lock()
	w.view = model.ViewNewChat
	w.mu.Unlock()
}

// OpenByMessage resumes the conversation anchored to a sidebar entry's
// message id, restoring its folder as the active one.
func (w *Workspace) OpenByMessage(messageID string) error {
	conv, ok := w.store.ConversationByAnchor(messageID)
	if !ok {
		return &store.ValidationError{Reason: "no conversation anchored to message"}
	}

	w.pipeline.SetActiveConversation(conv.ID)
	w.mu.Lock()
	w.view = model.ViewConversation
	if conv.Folder != "" {
		w.activeFolder = conv.Folder
	}
	w.mu.Unlock()
	return nil
}

// RenameConversation sets an explicit title.
func (w *Workspace) RenameConversation(id, title string) bool {
	return w.store.RenameConversation(id, title)
}

// DeleteConversation removes the conversation record. Its messages
// remain addressable by conversation id. Deleting the active
// conversation falls back to the all-messages view.
func (w *Workspace) DeleteConversation(id string) bool {
	ok := w.store.DeleteConversation(id)
	if ok {
		w.pipeline.NotifyConversationDeleted(id)
	}
	if ok && w.pipeline.ActiveConversation() == id {
		w.pipeline.SetActiveConversation("")
		w.mu.Lock()
		w.view = model.ViewAllMessages
		w.mu.Unlock()
	}
	return ok
}

// CreateFolder registers a project folder, makes it the active one, and
// starts a new chat in it. Existing names are reused.
func (w *Workspace) CreateFolder(name string) {
	w.store.AddFolder(name)
	w.mu.Lock()
	w.activeFolder = name
	w.mu.Unlock()
	w.NewChat()
}

// Search filters the conversation index by title and groups the result
// by folder.
func (w *Workspace) Search(query string) []model.FolderGroup {
	return index.GroupByFolder(index.Search(w.store.Conversations(), query))
}

// JumpTo resolves a message's position within the displayed list, or
// -1 when it is not displayed.
func (w *Workspace) JumpTo(messageID string) int {
	return index.ResolveJumpTarget(w.DisplayedMessages(), messageID)
}

// PinnedMessages lists pinned messages across all conversations.
func (w *Workspace) PinnedMessages() []model.Message {
	return w.store.PinnedMessages()
}

// AISummary lists the AI-authored messages of the displayed list.
func (w *Workspace) AISummary() []model.Message {
	return index.AISummary(w.DisplayedMessages())
}

// DisplayedMessages returns the message list for the current view:
// empty in new-chat mode, the conversation subsequence when one is
// active, the full global order otherwise.
func (w *Workspace) DisplayedMessages() []model.Message {
	w.mu.Lock()
	view := w.view
	w.mu.Unlock()

	switch view {
	case model.ViewNewChat:
		return []model.Message{}
	case model.ViewConversation:
		if active := w.pipeline.ActiveConversation(); active != "" {
			return w.store.ListByConversation(active)
		}
		return w.store.ListByConversation("")
	default:
		return w.store.ListByConversation("")
	}
}

// Snapshot returns the full read-only view for rendering.
func (w *Workspace) Snapshot() model.WorkspaceSnapshot {
	w.mu.Lock()
	view := w.view
	folder := w.activeFolder
	w.mu.Unlock()

	return model.WorkspaceSnapshot{
		View:               view,
		ActiveConversation: w.pipeline.ActiveConversation(),
		ActiveFolder:       folder,
		Messages:           w.DisplayedMessages(),
		Conversations:      w.store.Conversations(),
		Folders:            w.store.Folders(),
		Busy:               w.pipeline.Busy(),
	}
}

// Store exposes the underlying store for derived queries.
func (w *Workspace) Store() *store.Store {
	return w.store
}
