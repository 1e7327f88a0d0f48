package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuki-ai/chat-workspace/internal/dispatch"
	"github.com/yuki-ai/chat-workspace/internal/middleware"
	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/internal/responder"
	"github.com/yuki-ai/chat-workspace/internal/session"
	"github.com/yuki-ai/chat-workspace/internal/workspace"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
)

// flakyResponder fails a configurable number of calls before healing.
type flakyResponder struct {
	mu        sync.Mutex
	failFirst int
	calls     int
}

func (r *flakyResponder) Ask(ctx context.Context, req *responder.Request) (*responder.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.failFirst {
		return nil, &responder.ApplicationError{Message: "workflow declined"}
	}
	return &responder.Reply{Output: "answer to: " + req.Text}, nil
}

func (r *flakyResponder) Name() string { return "flaky" }

type testAPI struct {
	router   *chi.Mux
	provider *session.Manager
}

func newTestAPI(t *testing.T, resp responder.Client) *testAPI {
	t.Helper()

	log := logger.NewNop()
	provider := session.NewManager("test-secret", time.Hour, map[string]string{
		"dev@example.com": "hunter2",
	})
	registry := workspace.NewRegistry(resp, nil, log, time.Hour, true)

	authHandler := NewAuthHandler(provider, registry, log)
	wsHandler := NewWorkspaceHandler(registry, log)
	convHandler := NewConversationHandler(registry, log)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(provider))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/workspace", wsHandler.Snapshot)
			r.Post("/workspace/messages", wsHandler.Submit)
			r.Get("/workspace/messages/pinned", wsHandler.Pinned)
			r.Get("/workspace/messages/summary", wsHandler.Summary)
			r.Post("/workspace/messages/{id}/retry", wsHandler.Retry)
			r.Post("/workspace/messages/{id}/pin", wsHandler.TogglePin)
			r.Post("/workspace/messages/{id}/expand", wsHandler.ToggleExpand)
			r.Post("/workspace/messages/{id}/replies", wsHandler.SubReply)
			r.Get("/workspace/messages/{id}/jump", wsHandler.Jump)
			r.Post("/workspace/chat/new", wsHandler.NewChat)
			r.Post("/workspace/chat/open/{messageID}", wsHandler.Open)

			r.Get("/conversations", convHandler.List)
			r.Put("/conversations/{id}", convHandler.Rename)
			r.Delete("/conversations/{id}", convHandler.Delete)
			r.Post("/folders", convHandler.CreateFolder)
		})
	})

	return &testAPI{router: r, provider: provider}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dev@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sess session.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sess))
	return sess.Token
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})

	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dev@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWorkspaceRequiresAuth(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/workspace", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/workspace", "not-a-jwt", nil).Code)
}

func TestSnapshotShowsSeededWorkspace(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodGet, "/api/v1/workspace", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap model.WorkspaceSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, model.ViewNewChat, snap.View)
	assert.Len(t, snap.Conversations, 2)
	assert.Equal(t, []string{"General", "Follow-ups", "Notes"}, snap.Folders)
}

func TestSubmitRoundTrip(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/workspace/messages", token, map[string]string{
		"text": "what is Go?",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Result   dispatch.Result         `json:"result"`
		Snapshot model.WorkspaceSnapshot `json:"snapshot"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.False(t, resp.Result.Failed)
	require.NotNil(t, resp.Result.Reply)
	assert.Equal(t, "answer to: what is Go?", resp.Result.Reply.Text)
	assert.Equal(t, model.ViewConversation, resp.Snapshot.View)
	assert.Equal(t, resp.Result.ConversationID, resp.Snapshot.ActiveConversation)
	assert.Len(t, resp.Snapshot.Messages, 2)
}

func TestSubmitValidation(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/workspace/messages", token, map[string]string{
		"text": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFailedSubmitThenRetry(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{failFirst: 1})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/workspace/messages", token, map[string]string{
		"text": "flaky question",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var submitResp struct {
		Result dispatch.Result `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&submitResp))
	require.True(t, submitResp.Result.Failed)
	assert.Equal(t, dispatch.FailureApplication, submitResp.Result.FailureKind)
	assert.Contains(t, submitResp.Result.Reply.Text, "Service error: ")

	path := fmt.Sprintf("/api/v1/workspace/messages/%s/retry", submitResp.Result.UserMessage.ID)
	rec = api.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var retryResp struct {
		Result   dispatch.Result         `json:"result"`
		Snapshot model.WorkspaceSnapshot `json:"snapshot"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&retryResp))
	assert.False(t, retryResp.Result.Failed)
	assert.Equal(t, "answer to: flaky question", retryResp.Result.Reply.Text)

	// The timeline holds exactly the user message and the fresh reply.
	require.Len(t, retryResp.Snapshot.Messages, 2)
	assert.Equal(t, submitResp.Result.UserMessage.ID, retryResp.Snapshot.Messages[0].ID)
	assert.False(t, retryResp.Snapshot.Messages[0].HasError)
}

func TestRetryUnknownMessageIsBadRequest(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/workspace/messages/seed-m2/retry", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPinToggleAndPinnedList(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/workspace/messages/seed-m2/pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/workspace/messages/pinned", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pinned struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pinned))
	require.Len(t, pinned.Messages, 1)
	assert.Equal(t, "seed-m2", pinned.Messages[0].ID)
}

func TestSubReplyEndpoint(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/workspace/messages/seed-m4/replies", token, map[string]any{
		"topic_index": 0,
		"text":        "expand on that",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message model.Message `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Message.SubReplies[0], 2)
}

func TestOpenConversationByAnchor(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/workspace/chat/open/seed-m3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap model.WorkspaceSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, "seed-q2", snap.ActiveConversation)
	assert.Equal(t, "Follow-ups", snap.ActiveFolder)

	// An AI message anchors nothing.
	rec = api.do(t, http.MethodPost, "/api/v1/workspace/chat/open/seed-m2", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationListAndSearch(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodGet, "/api/v1/conversations?q=follow-ups", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Groups []model.FolderGroup `json:"groups"`
		Query  string              `json:"query"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "follow-ups", resp.Query)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Follow-ups", resp.Groups[0].Folder)
}

func TestRenameAndDeleteConversation(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPut, "/api/v1/conversations/seed-q1", token, map[string]string{
		"title": "Onboarding changes",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/v1/conversations/seed-q1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/v1/conversations/seed-q1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFolder(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/v1/folders", token, map[string]string{
		"name": "Research",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var snap model.WorkspaceSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, "Research", snap.ActiveFolder)
	assert.Equal(t, model.ViewNewChat, snap.View)
	assert.Contains(t, snap.Folders, "Research")
}

func TestLogoutDropsWorkspace(t *testing.T) {
	api := newTestAPI(t, &flakyResponder{})
	token := api.login(t)

	// Mutate workspace state, then log out.
	rec := api.do(t, http.MethodPost, "/api/v1/workspace/messages/seed-m2/pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The token still verifies by signature, but the workspace was
	// dropped, so the pin is gone on the rebuilt one.
	rec = api.do(t, http.MethodGet, "/api/v1/workspace/messages/pinned", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pinned struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pinned))
	assert.Empty(t, pinned.Messages)
}
