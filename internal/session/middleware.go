package session

import (
	"context"
	"errors"
	"net/http"
)

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by Load, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Load attaches the request's session to its context when there is one.
// Anonymous requests pass through unchanged.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.FromRequest(r)
		switch {
		case err == nil:
			r = r.WithContext(WithSession(r.Context(), s))
		case !errors.Is(err, ErrNoSession):
			m.log.Error("session lookup failed", "err", err)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession redirects anonymous requests to the sign-in page.
// It expects Load to have run earlier in the chain.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
