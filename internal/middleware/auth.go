// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yuki-ai/chat-workspace/internal/session"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// SessionKey is the context key for the resolved session.
	SessionKey ContextKey = "session"
)

// Auth resolves the bearer token through the identity provider and
// attaches the session to the request context.
func Auth(provider session.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			sess, ok := provider.GetSession(r.Context(), parts[1])
			if !ok {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession gets the resolved session from context.
func GetSession(ctx context.Context) *session.Session {
	if v := ctx.Value(SessionKey); v != nil {
		return v.(*session.Session)
	}
	return nil
}

// GetUserID gets the user ID from context.
func GetUserID(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.UserID
	}
	return ""
}

// GetSessionID gets the session ID from context.
func GetSessionID(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.SessionID
	}
	return ""
}
