package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/seller-gateway/internal/respond"
	"github.com/jrsteele09/seller-gateway/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the decoded session
	ContextKeySession ContextKey = "session"
)

// RequireSession is middleware for API routes that need a session cookie.
// The decoded session is placed on the request context.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.codec.Read(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeySession, session)
		next(w, r.WithContext(ctx))
	}
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(sessions.Session)
	return session, ok
}
