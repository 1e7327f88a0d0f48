// Package subthread handles threaded replies under the sub-topics of an
// AI message. It is deliberately decoupled from the main dispatch
// pipeline: it has its own single-flight state and writes only into the
// owning message's sub-thread, never into the top-level order.
package subthread

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuki-ai/chat-workspace/internal/dispatch"
	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/internal/responder"
	"github.com/yuki-ai/chat-workspace/internal/store"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
	"github.com/yuki-ai/chat-workspace/pkg/metrics"
)

// Result reports one sub-thread exchange.
type Result struct {
	MessageID  string          `json:"message_id"`
	TopicIndex int             `json:"topic_index"`
	UserReply  model.SubReply  `json:"user_reply"`
	AIReply    *model.SubReply `json:"ai_reply,omitempty"`
	Failed     bool            `json:"failed,omitempty"`
}

// Pipeline is the minimal send state machine for sub-thread replies.
type Pipeline struct {
	store     *store.Store
	responder responder.Client
	logger    *logger.Logger

	userID    string
	sessionID string

	mu       sync.Mutex
	inFlight bool
	// drafts holds per-thread compose text, keyed by message id and
	// topic index. Independent of the main compose-box draft.
	drafts map[draftKey]string
}

type draftKey struct {
	messageID string
	topic     int
}

// New creates a sub-thread pipeline over the shared store.
func New(st *store.Store, client responder.Client, log *logger.Logger, userID, sessionID string) *Pipeline {
	return &Pipeline{
		store:     st,
		responder: client,
		logger:    log,
		userID:    userID,
		sessionID: sessionID,
		drafts:    make(map[draftKey]string),
	}
}

// SetDraft stores the compose text for one thread. An empty text clears
// the entry.
func (p *Pipeline) SetDraft(messageID string, topic int, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := draftKey{messageID: messageID, topic: topic}
	if text == "" {
		delete(p.drafts, key)
		return
	}
	p.drafts[key] = text
}

// Draft returns the compose text for one thread.
func (p *Pipeline) Draft(messageID string, topic int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drafts[draftKey{messageID: messageID, topic: topic}]
}

// Reply appends a user reply under one sub-topic and asks the responder
// for a follow-up answer in the same thread.
func (p *Pipeline) Reply(ctx context.Context, messageID string, topic int, text string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &store.ValidationError{Reason: "input is empty"}
	}

	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, dispatch.ErrBusy
	}
	p.inFlight = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	userReply := model.SubReply{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Author:    model.AuthorUser,
		Text:      trimmed,
		CreatedAt: time.Now(),
	}
	if err := p.store.AppendSubReply(messageID, topic, userReply); err != nil {
		return nil, err
	}
	metrics.SubRepliesTotal.WithLabelValues(string(model.AuthorUser)).Inc()
	p.SetDraft(messageID, topic, "")

	result := &Result{
		MessageID:  messageID,
		TopicIndex: topic,
		UserReply:  userReply,
	}

	answer, err := p.responder.Ask(ctx, &responder.Request{
		Text:      trimmed,
		UserID:    p.userID,
		SessionID: p.sessionID,
	})
	if err != nil {
		text := "Connection error: " + err.Error()
		var appErr *responder.ApplicationError
		if errors.As(err, &appErr) {
			text = "Service error: " + appErr.Message
		}
		aiReply := p.appendAIReply(messageID, topic, text)
		result.AIReply = aiReply
		result.Failed = true
		p.logger.Warn("sub-thread dispatch failed",
			zap.String("message_id", messageID),
			zap.Int("topic", topic),
			zap.Error(err),
		)
		return result, nil
	}

	result.AIReply = p.appendAIReply(messageID, topic, answer.Output)
	return result, nil
}

func (p *Pipeline) appendAIReply(messageID string, topic int, text string) *model.SubReply {
	aiReply := model.SubReply{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Author:    model.AuthorAI,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := p.store.AppendSubReply(messageID, topic, aiReply); err != nil {
		p.logger.Error("failed to append sub-thread reply", zap.Error(err))
		return nil
	}
	metrics.SubRepliesTotal.WithLabelValues(string(model.AuthorAI)).Inc()
	return &aiReply
}
