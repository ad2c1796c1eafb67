package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gostore.dev/web/internal/localstate"
)

// makeToken builds an unsigned JWT carrying only an exp claim; the client
// never verifies signatures so a fake signature part is fine.
func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, exp.Unix())))
	return header + "." + claims + ".sig"
}

type fakeBackend struct {
	t            *testing.T
	refreshCalls atomic.Int32
	queryCalls   atomic.Int32
	lastAuth     atomic.Value
	newPair      TokenPair
}

func (f *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Query, "refreshToken {") {
			f.refreshCalls.Add(1)
			f.lastAuth.Store(r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"refreshToken": map[string]string{
						"token":        f.newPair.Token,
						"refreshToken": f.newPair.RefreshToken,
					},
				},
			})
			return
		}
		f.queryCalls.Add(1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"braintreeClientToken": "bt-token"},
		})
	}
}

func TestExpiredAccessTokenRefreshedOncePerRequest(t *testing.T) {
	fresh := makeToken(t, time.Now().Add(time.Hour))
	backend := &fakeBackend{t: t, newPair: TokenPair{Token: fresh, RefreshToken: makeToken(t, time.Now().Add(24*time.Hour))}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	port := localstate.NewMemoryPort()
	auth := localstate.NewAuthStore(port)
	auth.SetTokens(makeToken(t, time.Now().Add(-time.Minute)), makeToken(t, time.Now().Add(time.Hour)), true)

	client := NewClient(srv.URL, auth, nil)
	token, err := client.ClientToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "bt-token", token)

	require.EqualValues(t, 1, backend.refreshCalls.Load())
	require.Equal(t, "Bearer "+fresh, backend.lastAuth.Load())

	// refreshed pair is stored with the original persistence choice
	tokens, ok := auth.Tokens()
	require.True(t, ok)
	require.Equal(t, fresh, tokens.AccessToken)
	require.True(t, auth.Persisted())

	// the next request reuses the fresh token without another refresh
	_, err = client.ClientToken(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, backend.refreshCalls.Load())
}

func TestBothTokensExpiredLogsOutAndProceedsUnauthenticated(t *testing.T) {
	backend := &fakeBackend{t: t}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	auth := localstate.NewAuthStore(localstate.NewMemoryPort())
	auth.SetTokens(makeToken(t, time.Now().Add(-time.Hour)), makeToken(t, time.Now().Add(-time.Minute)), true)

	client := NewClient(srv.URL, auth, nil)
	_, err := client.ClientToken(context.Background())
	require.NoError(t, err)

	require.EqualValues(t, 0, backend.refreshCalls.Load())
	require.Equal(t, "", backend.lastAuth.Load())
	_, ok := auth.Tokens()
	require.False(t, ok, "logout expected")
}

func TestGraphQLErrorsSurfaceEveryMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"Email or password is invalid."},{"message":""}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, nil)
	_, err := client.SignIn(context.Background(), "a@b.c", "nope")
	require.Error(t, err)
	apiErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, KindRemote, apiErr.Kind)
	require.Equal(t, []string{"Email or password is invalid.", "Something went wrong :("}, apiErr.UserMessages())
}

func TestUpstreamErrorBodySurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, nil)
	_, err := client.ClientToken(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 502")
	require.Contains(t, err.Error(), "upstream unavailable")
}

func TestNotAuthenticatedKindDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"Not authenticated.","extensions":{"code":"NOT_AUTHENTICATED"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, nil)
	_, err := client.Me(context.Background())
	require.Error(t, err)
	require.True(t, IsNotAuthenticated(err))
}
