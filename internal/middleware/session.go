package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const sessionCookieName = "GOSTORE_WEB_SESSION"

// SessionData is the per-visitor state carried in the signed session cookie.
// State holds the JSON payloads the cart and auth stores persist, keyed by
// their storage keys. It satisfies the stores' persistence port.
type SessionData struct {
	ID        string            `json:"id"`
	State     map[string]string `json:"state,omitempty"`
	CSRFToken string            `json:"csrf,omitempty"`
	// Persist marks the cookie to outlive the browser session; set by the
	// stay-signed-in choice.
	Persist   bool      `json:"persist,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	dirty bool
}

func (s *SessionData) Get(key string) (string, bool) {
	v, ok := s.State[key]
	return v, ok
}

func (s *SessionData) Set(key, value string) {
	if s.State == nil {
		s.State = map[string]string{}
	}
	s.State[key] = value
	s.MarkDirty()
}

func (s *SessionData) Delete(key string) {
	if _, ok := s.State[key]; !ok {
		return
	}
	delete(s.State, key)
	s.MarkDirty()
}

// MarkDirty flags the session for writing at end of request.
func (s *SessionData) MarkDirty() {
	s.dirty = true
	s.UpdatedAt = time.Now().UTC()
}

// RegenerateID assigns a new session ID and CSRF token to prevent fixation
// after sign-in.
func (s *SessionData) RegenerateID() {
	s.ID = randID()
	s.CSRFToken = newCSRFToken()
	s.MarkDirty()
}

// Sessions signs and verifies the session cookie. The signing key comes from
// configuration; secure marks cookies Secure outside local development.
type Sessions struct {
	key    []byte
	secure bool
}

// NewSessions builds the session layer. An empty key gets replaced with a
// process-ephemeral one, which only suits development.
func NewSessions(key []byte, secure bool) *Sessions {
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Sessions{key: key, secure: secure}
}

// Middleware loads or initializes the session and stores it on the request
// context. The cookie is re-written just before the first response write
// whenever the session changed during the request.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.read(r)
		if sd.ID == "" {
			sd.ID = randID()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)

		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.write(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		// nothing written yet (e.g. HEAD): persist the cookie now
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			s.write(w, sd)
		}
	})
}

// GetSession returns session data from the request context.
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok {
		return sd
	}
	return &SessionData{}
}

func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return &SessionData{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return &SessionData{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return &SessionData{}, false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	b, _ := json.Marshal(sd)
	payload := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, s.key)
	mac.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	c := &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sig,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	// non-persistent sessions stay browser-session cookies
	if sd.Persist {
		c.Expires = time.Now().Add(30 * 24 * time.Hour)
	}
	http.SetCookie(w, c)
}

// randID mints a sortable session id; registry eviction relies on ids being
// unique, not on their ordering.
func randID() string {
	return ulid.Make().String()
}
