package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager("test-secret", time.Hour, map[string]string{
		"dev@example.com": "hunter2",
	})
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	sess, err := m.Login(ctx, "dev@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, sess.SessionID)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	got, ok := m.GetSession(ctx, sess.Token)
	require.True(t, ok)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.SessionID, got.SessionID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	var authErr *AuthError
	_, err := m.Login(ctx, "dev@example.com", "wrong")
	assert.ErrorAs(t, err, &authErr)

	_, err = m.Login(ctx, "nobody@example.com", "hunter2")
	assert.ErrorAs(t, err, &authErr)
}

func TestUserIDStableAcrossLogins(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	first, err := m.Login(ctx, "dev@example.com", "hunter2")
	require.NoError(t, err)
	second, err := m.Login(ctx, "dev@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestGetSessionVerifiesSignatureOnCacheMiss(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	sess, err := m.Login(ctx, "dev@example.com", "hunter2")
	require.NoError(t, err)

	// A second manager with the same secret has an empty cache and must
	// fall back to signature verification.
	fresh := NewManager("test-secret", time.Hour, nil)
	got, ok := fresh.GetSession(ctx, sess.Token)
	require.True(t, ok)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.SessionID, got.SessionID)

	// A manager with a different secret must reject it.
	other := NewManager("different-secret", time.Hour, nil)
	_, ok = other.GetSession(ctx, sess.Token)
	assert.False(t, ok)

	_, ok = m.GetSession(ctx, "not-a-token")
	assert.False(t, ok)
}

func TestLogoutInvalidatesCachedSession(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	sess, err := m.Login(ctx, "dev@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, sess.Token))
	// The signature is still valid, so verification resurrects the
	// session until the token itself expires.
	_, ok := m.GetSession(ctx, sess.Token)
	assert.True(t, ok)

	require.NoError(t, m.Logout(ctx, "unknown-token"))
}

func TestSubscribeObservesChanges(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	ch := m.Subscribe()

	sess, err := m.Login(ctx, "dev@example.com", "hunter2")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx, sess.Token))

	login := <-ch
	assert.Equal(t, ChangeLogin, login.Type)
	assert.Equal(t, sess.SessionID, login.Session.SessionID)

	logout := <-ch
	assert.Equal(t, ChangeLogout, logout.Type)
	assert.Equal(t, sess.SessionID, logout.Session.SessionID)
}
