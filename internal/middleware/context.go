package middleware

import (
	"context"
	"net/http"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyFragment ctxKey = "fragment"
	ctxKeySession  ctxKey = "session"
	ctxKeyUser     ctxKey = "user"
)

// Fragments flags requests issued by the page's htmx attributes. Handlers
// answer those with a bare fragment swap instead of a full page or redirect.
func Fragments(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("HX-Request") == "true" {
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyFragment, true))
		}
		next.ServeHTTP(w, r)
	})
}

// IsFragment reports whether the request wants a fragment response.
func IsFragment(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyFragment).(bool)
	return v
}

// User is the signed-in visitor as far as the UI is concerned.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

// WithUser stores user in context
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// UserFromContext returns user if present
func UserFromContext(ctx context.Context) *User {
	if v := ctx.Value(ctxKeyUser); v != nil {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}
