// Package dispatch turns a submitted draft into a responder request and
// reconciles the outcome back into the store. One pipeline serves one
// chat surface; at most one request is in flight at a time.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuki-ai/chat-workspace/internal/events"
	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/internal/responder"
	"github.com/yuki-ai/chat-workspace/internal/store"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
	"github.com/yuki-ai/chat-workspace/pkg/metrics"
)

// ErrBusy rejects a submit while another request is in flight. The
// caller treats it as a no-op, not as a queued send.
var ErrBusy = errors.New("a request is already in flight")

// FailureKind distinguishes the two failure surfaces a user can see.
type FailureKind string

const (
	FailureApplication FailureKind = "application_error"
	FailureTransport   FailureKind = "transport_error"
)

// Result reports one completed pipeline run. Responder failures are
// reconciled into the store and reported here rather than returned as
// errors; the conversation always stays open for retry.
type Result struct {
	ConversationID string         `json:"conversation_id"`
	UserMessage    model.Message  `json:"user_message"`
	Reply          *model.Message `json:"reply,omitempty"`
	Failed         bool           `json:"failed,omitempty"`
	FailureKind    FailureKind    `json:"failure_kind,omitempty"`
}

// Pipeline is the Idle -> Submitting -> (Succeeded|Failed) state machine
// for one chat surface.
type Pipeline struct {
	store     *store.Store
	responder responder.Client
	events    *events.Publisher
	logger    *logger.Logger

	userID    string
	sessionID string

	mu       sync.Mutex
	inFlight bool
	active   string // active conversation id, "" when none
}

// New creates a pipeline over the given store and responder.
func New(st *store.Store, client responder.Client, pub *events.Publisher, log *logger.Logger, userID, sessionID string) *Pipeline {
	return &Pipeline{
		store:     st,
		responder: client,
		events:    pub,
		logger:    log,
		userID:    userID,
		sessionID: sessionID,
	}
}

// ActiveConversation returns the active conversation id, or "" in
// new-chat mode.
func (p *Pipeline) ActiveConversation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// SetActiveConversation switches the conversation context, e.g. when
// resuming from the sidebar. An empty id returns to new-chat mode.
func (p *Pipeline) SetActiveConversation(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = id
}

// Busy reports whether a request is currently in flight.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Submit dispatches a fresh question. The user message is appended
// synchronously; the conversation is minted lazily on the first send so
// abandoned drafts never leave empty conversations behind. folder is
// the active folder the new conversation would join.
func (p *Pipeline) Submit(ctx context.Context, text, folder string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &store.ValidationError{Reason: "input is empty"}
	}

	if !p.begin() {
		return nil, ErrBusy
	}
	defer p.end()

	userMsg := model.Message{
		ID:               uuid.Must(uuid.NewV7()).String(),
		Author:           model.AuthorUser,
		Text:             trimmed,
		CreatedAt:        time.Now(),
		OriginalQuestion: trimmed,
	}

	conversationID, err := p.resolveConversation(userMsg.ID, trimmed, folder)
	if err != nil {
		return nil, err
	}
	userMsg.ConversationID = conversationID

	if err := p.store.AppendMessage(userMsg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.AuthorUser)).Inc()
	p.publish(model.EventTypeMessageAppended, conversationID, "")

	return p.dispatch(ctx, conversationID, userMsg), nil
}

// Retry re-dispatches an error-flagged user message. Stale AI output
// after the message is rewound first, the error flag is cleared, and
// the stored original question is resubmitted under the same message
// identity; no second user message is created.
func (p *Pipeline) Retry(ctx context.Context, messageID string) (*Result, error) {
	msg, ok := p.store.Message(messageID)
	if !ok {
		return nil, &store.ValidationError{Reason: "message not found"}
	}
	if msg.Author != model.AuthorUser || msg.OriginalQuestion == "" {
		return nil, &store.ValidationError{Reason: "message is not retryable"}
	}

	if !p.begin() {
		return nil, ErrBusy
	}
	defer p.end()

	p.store.RemoveMessagesAfter(msg.ID, msg.ConversationID, func(m model.Message) bool {
		return m.Author == model.AuthorAI
	})

	cleared := false
	p.store.UpdateMessage(msg.ID, model.MessagePatch{HasError: &cleared})
	msg.HasError = false

	metrics.RetriesTotal.Inc()
	p.logger.Info("retrying dispatch",
		zap.String("message_id", msg.ID),
		zap.String("conversation_id", msg.ConversationID),
	)

	return p.dispatch(ctx, msg.ConversationID, msg), nil
}

// NotifyConversationDeleted emits the deletion event for subscribers.
// The store mutation itself happens at the workspace layer.
func (p *Pipeline) NotifyConversationDeleted(conversationID string) {
	p.publish(model.EventTypeConversationDeleted, conversationID, "")
}

// resolveConversation reuses the active conversation or mints a new one
// anchored to the originating user message.
func (p *Pipeline) resolveConversation(userMessageID, question, folder string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != "" {
		return p.active, nil
	}

	conv := model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Title:     model.DeriveTitle(question),
		Folder:    folder,
		MessageID: userMessageID,
		CreatedAt: time.Now(),
	}
	if err := p.store.AddConversation(conv); err != nil {
		return "", err
	}

	p.active = conv.ID
	metrics.ConversationsTotal.Inc()
	p.publish(model.EventTypeConversationCreated, conv.ID, "")
	return conv.ID, nil
}

// dispatch runs the responder call and reconciles the outcome.
func (p *Pipeline) dispatch(ctx context.Context, conversationID string, userMsg model.Message) *Result {
	start := time.Now()

	reply, err := p.responder.Ask(ctx, &responder.Request{
		Text:      userMsg.OriginalQuestion,
		UserID:    p.userID,
		SessionID: p.sessionID,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		return p.reconcileFailure(conversationID, userMsg, err, elapsed)
	}

	createdAt := reply.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	aiMsg := model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Author:         model.AuthorAI,
		Text:           reply.Output,
		CreatedAt:      createdAt,
	}
	if err := p.store.AppendMessage(aiMsg); err != nil {
		p.logger.Error("failed to append AI message", zap.Error(err))
	}

	metrics.MessagesTotal.WithLabelValues(string(model.AuthorAI)).Inc()
	metrics.RecordDispatch(p.responder.Name(), "success", elapsed)
	p.publish(model.EventTypeMessageAppended, conversationID, "")

	return &Result{
		ConversationID: conversationID,
		UserMessage:    userMsg,
		Reply:          &aiMsg,
	}
}

// reconcileFailure flags the user message and appends a synthetic AI
// message so the failure is visible in the conversation itself. The
// message text distinguishes a declined request from an unreachable
// service.
func (p *Pipeline) reconcileFailure(conversationID string, userMsg model.Message, cause error, elapsed float64) *Result {
	flagged := true
	p.store.UpdateMessage(userMsg.ID, model.MessagePatch{HasError: &flagged})
	userMsg.HasError = true

	kind := FailureTransport
	text := "Connection error: " + cause.Error()

	var appErr *responder.ApplicationError
	if errors.As(cause, &appErr) {
		kind = FailureApplication
		text = "Service error: " + appErr.Message
	}

	errMsg := model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Author:         model.AuthorAI,
		Text:           text,
		CreatedAt:      time.Now(),
	}
	if err := p.store.AppendMessage(errMsg); err != nil {
		p.logger.Error("failed to append error message", zap.Error(err))
	}

	metrics.RecordDispatch(p.responder.Name(), string(kind), elapsed)
	p.publish(model.EventTypeDispatchFailed, conversationID, cause.Error())
	p.logger.Warn("dispatch failed",
		zap.String("conversation_id", conversationID),
		zap.String("kind", string(kind)),
		zap.Error(cause),
	)

	return &Result{
		ConversationID: conversationID,
		UserMessage:    userMsg,
		Reply:          &errMsg,
		Failed:         true,
		FailureKind:    kind,
	}
}

func (p *Pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

func (p *Pipeline) end() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

func (p *Pipeline) publish(eventType model.EventType, conversationID, reason string) {
	p.events.Publish(&model.WorkspaceEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		SessionID:      p.sessionID,
		ConversationID: conversationID,
		Type:           eventType,
		Reason:         reason,
		CreatedAt:      time.Now(),
	})
}
