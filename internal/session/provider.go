// Package session is the opaque credential boundary. The core only
// consumes "is authenticated" plus opaque user and session identifiers
// for request tagging.
package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// AuthError is a credential failure.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s", e.Reason)
}

// Session is an issued credential.
type Session struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChangeType marks the direction of a session change.
type ChangeType string

const (
	ChangeLogin  ChangeType = "login"
	ChangeLogout ChangeType = "logout"
)

// Change is one entry on the change-notification stream.
type Change struct {
	Type    ChangeType
	Session *Session
}

// Provider issues and validates session credentials.
type Provider interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*Session, bool)
	Subscribe() <-chan Change
}

// claims are the JWT claims carried by an issued token.
type claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// Manager is a JWT-backed Provider with an in-memory credential table.
type Manager struct {
	secret []byte
	ttl    time.Duration

	// email -> password; a stand-in for the external identity service.
	credentials map[string]string

	// token -> *Session; TTL-evicted alongside token expiry.
	sessions *gocache.Cache

	mu          sync.Mutex
	subscribers []chan Change
}

// NewManager creates a session manager. credentials maps login emails
// to passwords.
func NewManager(secret string, ttl time.Duration, credentials map[string]string) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:      []byte(secret),
		ttl:         ttl,
		credentials: credentials,
		sessions:    gocache.New(ttl, 10*time.Minute),
	}
}

// Login validates credentials and issues a signed session token. The
// user id is derived deterministically from the email so it is stable
// across logins.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	expected, ok := m.credentials[email]
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(password)) != 1 {
		return nil, &AuthError{Reason: "invalid email or password"}
	}

	userID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(email)).String()
	sessionID := uuid.Must(uuid.NewV7()).String()
	expiresAt := time.Now().Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		SessionID: sessionID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	sess := &Session{
		UserID:    userID,
		SessionID: sessionID,
		Token:     signed,
		ExpiresAt: expiresAt,
	}
	m.sessions.Set(signed, sess, time.Until(expiresAt))
	m.notify(Change{Type: ChangeLogin, Session: sess})

	return sess, nil
}

// Logout invalidates a token. Unknown tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if v, ok := m.sessions.Get(token); ok {
		m.sessions.Delete(token)
		m.notify(Change{Type: ChangeLogout, Session: v.(*Session)})
	}
	return nil
}

// GetSession resolves a token to its session. The cache is consulted
// first; a cache miss falls back to signature verification so tokens
// survive process restarts within their validity window.
func (m *Manager) GetSession(ctx context.Context, token string) (*Session, bool) {
	if v, ok := m.sessions.Get(token); ok {
		return v.(*Session), true
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}

	sess := &Session{
		UserID:    c.Subject,
		SessionID: c.SessionID,
		Token:     token,
		ExpiresAt: c.ExpiresAt.Time,
	}
	m.sessions.Set(token, sess, time.Until(sess.ExpiresAt))
	return sess, true
}

// Subscribe returns a change-notification stream of session updates.
func (m *Manager) Subscribe() <-chan Change {
	ch := make(chan Change, 16)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) notify(change Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- change:
		default: // slow subscribers never block auth
		}
	}
}
