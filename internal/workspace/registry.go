package workspace

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yuki-ai/chat-workspace/internal/dispatch"
	"github.com/yuki-ai/chat-workspace/internal/events"
	"github.com/yuki-ai/chat-workspace/internal/responder"
	"github.com/yuki-ai/chat-workspace/internal/session"
	"github.com/yuki-ai/chat-workspace/internal/store"
	"github.com/yuki-ai/chat-workspace/internal/subthread"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
	"github.com/yuki-ai/chat-workspace/pkg/metrics"
)

// Registry hands out one workspace per session, created on first use
// and evicted after an idle TTL, the server-side analogue of a browser
// tab's lifetime.
type Registry struct {
	responder responder.Client
	events    *events.Publisher
	logger    *logger.Logger
	seedDemo  bool

	workspaces *gocache.Cache
	ttl        time.Duration
}

// NewRegistry creates a workspace registry.
func NewRegistry(client responder.Client, pub *events.Publisher, log *logger.Logger, ttl time.Duration, seedDemo bool) *Registry {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	c := gocache.New(ttl, 30*time.Minute)
	c.OnEvicted(func(string, interface{}) {
		metrics.WorkspacesActive.Dec()
	})

	return &Registry{
		responder:  client,
		events:     pub,
		logger:     log,
		seedDemo:   seedDemo,
		workspaces: c,
		ttl:        ttl,
	}
}

// Get returns the workspace for a session, creating it on first use
// and refreshing its idle timer on every access.
func (r *Registry) Get(sess *session.Session) *Workspace {
	if v, ok := r.workspaces.Get(sess.SessionID); ok {
		w := v.(*Workspace)
		r.workspaces.Set(sess.SessionID, w, r.ttl)
		return w
	}

	st := store.New()
	if r.seedDemo {
		Seed(st)
	}

	log := r.logger.WithWorkspace(sess.SessionID, sess.UserID, "")
	pipeline := dispatch.New(st, r.responder, r.events, log, sess.UserID, sess.SessionID)
	threads := subthread.New(st, r.responder, log, sess.UserID, sess.SessionID)

	w := New(st, pipeline, threads, log)
	r.workspaces.Set(sess.SessionID, w, r.ttl)
	metrics.WorkspacesActive.Inc()
	return w
}

// Drop removes a session's workspace, e.g. on logout.
func (r *Registry) Drop(sessionID string) {
	r.workspaces.Delete(sessionID)
}
