// Package middleware holds the HTTP middleware guarding session-token
// routes.
package middleware

import (
	"context"
	"net/http"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/session"
)

// SessionHeader carries the opaque bearer token.
const SessionHeader = "X-Session-Token"

type contextKey int

const userContextKey contextKey = iota

// SessionAuthenticator is middleware that resolves session tokens to users.
type SessionAuthenticator struct {
	Issuer *session.Issuer
}

// NewSessionAuthenticator creates a new session authenticator middleware.
func NewSessionAuthenticator(issuer *session.Issuer) *SessionAuthenticator {
	return &SessionAuthenticator{Issuer: issuer}
}

// Middleware returns an HTTP middleware that validates session tokens.
// Missing, unknown and expired tokens all end the request with 401; the
// resolved user is placed on the request context for the handler.
func (a *SessionAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(SessionHeader)
		if token == "" {
			http.Error(w, "Session token missing", http.StatusUnauthorized)
			return
		}

		state, user, err := a.Issuer.Validate(token)
		if err != nil {
			http.Error(w, "Session lookup failed", http.StatusInternalServerError)
			return
		}

		switch state {
		case session.Valid:
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		case session.Expired:
			http.Error(w, "Session expired", http.StatusUnauthorized)
		default:
			http.Error(w, "Invalid session token", http.StatusUnauthorized)
		}
	})
}

// RequireRole wraps a handler so only the named roles pass. It assumes the
// session middleware already ran.
func RequireRole(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, "Session token missing", http.StatusUnauthorized)
			return
		}
		for _, role := range roles {
			if user.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Insufficient privilege", http.StatusForbidden)
	})
}

// WithUser attaches a resolved user to the context.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user resolved by the session middleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok
}
