// Package api is the storefront's remote data access layer: a GraphQL-over-
// HTTP client that attaches bearer tokens, transparently refreshes an expired
// access token once per outgoing request, and maps GraphQL errors onto the
// storefront error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"gostore.dev/web/internal/localstate"
)

const defaultTimeout = 10 * time.Second

// Client issues queries and mutations against the commerce GraphQL API.
type Client struct {
	endpoint string
	http     *http.Client
	auth     *localstate.AuthStore
	logger   *zap.Logger
}

// NewClient constructs a client for the given GraphQL endpoint. The auth
// store may be nil for fully anonymous access.
func NewClient(endpoint string, auth *localstate.AuthStore, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: defaultTimeout},
		auth:     auth,
		logger:   logger,
	}
}

// HTTPClient exposes the underlying transport, primarily for tests.
func (c *Client) HTTPClient() *http.Client { return c.http }

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Do executes one operation, decorating it with the Authorization header
// when a usable access token is available. Out, when non-nil, receives the
// decoded "data" object.
func (c *Client) Do(ctx context.Context, query string, vars map[string]any, out any) error {
	token := c.bearerToken(ctx)
	return c.roundTrip(ctx, query, vars, token, out)
}

// bearerToken returns the current access token, refreshing it first when its
// embedded expiry has passed. The refresh itself goes through roundTrip
// directly so decoration can never recurse. At most one refresh happens per
// outgoing request; when the refresh token is also expired or absent the
// visitor is logged out and the request proceeds unauthenticated.
func (c *Client) bearerToken(ctx context.Context) string {
	if c.auth == nil {
		return ""
	}
	tokens, ok := c.auth.Tokens()
	if !ok || tokens.AccessToken == "" {
		return ""
	}
	if !tokenExpired(tokens.AccessToken) {
		return tokens.AccessToken
	}
	if tokens.RefreshToken == "" || tokenExpired(tokens.RefreshToken) {
		c.logger.Debug("refresh token expired, logging out")
		c.auth.Logout()
		return ""
	}

	var result struct {
		RefreshToken *struct {
			Token        string `json:"token"`
			RefreshToken string `json:"refreshToken"`
		} `json:"refreshToken"`
	}
	err := c.roundTrip(ctx, refreshTokenMutation, nil, tokens.RefreshToken, &result)
	if err != nil || result.RefreshToken == nil || result.RefreshToken.Token == "" {
		c.logger.Debug("token refresh failed, logging out", zap.Error(err))
		c.auth.Logout()
		return ""
	}
	c.auth.SetTokens(result.RefreshToken.Token, result.RefreshToken.RefreshToken, c.auth.Persisted())
	return result.RefreshToken.Token
}

func (c *Client) roundTrip(ctx context.Context, query string, vars map[string]any, token string, out any) error {
	payload, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindRemote, Messages: []string{err.Error()}}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindRemote, Messages: []string{err.Error()}}
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode >= 400 {
			return &Error{Kind: KindRemote, Messages: []string{
				fmt.Sprintf("api: status %d: %s", resp.StatusCode, bodySnippet(body)),
			}}
		}
		return err
	}
	if len(decoded.Errors) > 0 {
		return fromGraphQLErrors(decoded.Errors)
	}
	if out != nil && len(decoded.Data) > 0 {
		return json.Unmarshal(decoded.Data, out)
	}
	return nil
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; verification is the API's job, the client only needs to know
// whether sending the token is worthwhile.
func tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Now().After(claims.ExpiresAt.Time)
}

// bodySnippet trims a non-JSON error body down to a short loggable line.
func bodySnippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}
