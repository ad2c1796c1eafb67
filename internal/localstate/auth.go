package localstate

import "encoding/json"

// Tokens is the persisted auth token pair.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type authPayload struct {
	Tokens
	// Persist records the visitor's stay-signed-in choice so the session
	// layer can pick the cookie lifetime and token refreshes can re-save
	// with the same choice.
	Persist bool `json:"persist,omitempty"`
}

// AuthStore keeps the token pair behind the port. The port is the visitor's
// session state, so tokens always live there; the persist flag only records
// whether the session should outlive the browser session.
type AuthStore struct {
	port   Port
	cached *authPayload
	loaded bool
}

// NewAuthStore wraps the provided persistence port.
func NewAuthStore(port Port) *AuthStore {
	return &AuthStore{port: port}
}

func (s *AuthStore) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	raw, ok := s.port.Get(AuthKey)
	if !ok || raw == "" {
		return
	}
	var p authPayload
	if err := json.Unmarshal([]byte(raw), &p); err == nil && p.AccessToken != "" {
		s.cached = &p
	}
}

// Tokens returns the current token pair, loading from the port on first use.
func (s *AuthStore) Tokens() (Tokens, bool) {
	s.load()
	if s.cached == nil {
		return Tokens{}, false
	}
	return s.cached.Tokens, true
}

// SetTokens stores a new pair along with the stay-signed-in choice.
func (s *AuthStore) SetTokens(access, refresh string, persist bool) {
	p := authPayload{Tokens: Tokens{AccessToken: access, RefreshToken: refresh}, Persist: persist}
	s.cached = &p
	s.loaded = true
	if b, err := json.Marshal(p); err == nil {
		s.port.Set(AuthKey, string(b))
	}
}

// Persisted reports the visitor's stay-signed-in choice. Token refreshes
// re-save with the same choice made at sign-in.
func (s *AuthStore) Persisted() bool {
	s.load()
	return s.cached != nil && s.cached.Persist
}

// Logout clears the stored pair.
func (s *AuthStore) Logout() {
	s.cached = nil
	s.loaded = true
	s.port.Delete(AuthKey)
}
