package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"gostore.dev/web/internal/localstate"
)

// Auth hydrates the user context from the session's stored access token.
// Claims are read without signature verification; only the backend verifies
// tokens, this layer just decides what the UI shows.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := localstate.NewAuthStore(GetSession(r))
		if tokens, ok := auth.Tokens(); ok {
			if u := userFromToken(tokens.AccessToken); u != nil {
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type accessClaims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

func userFromToken(token string) *User {
	if token == "" {
		return nil
	}
	claims := accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil
	}
	u := &User{ID: claims.Subject, Email: claims.Email, Admin: claims.Admin}
	if u.ID == "" && u.Email == "" {
		return nil
	}
	return u
}
