package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/domain"
)

// refreshLeeway is how long before expiry an access token is renewed.
const refreshLeeway = 30 * time.Second

// Session holds the member's tokens. The access token's exp claim is read
// without verification; the backend remains the judge of validity.
type Session struct {
	mu        sync.RWMutex
	tokens    domain.AuthTokens
	expiresAt time.Time

	refreshMu sync.Mutex
}

func (s *Session) SetTokens(t domain.AuthTokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	s.expiresAt = tokenExpiry(t.AccessToken)
}

func (s *Session) Clear() {
	s.SetTokens(domain.AuthTokens{})
}

func (s *Session) SignedIn() bool {
	return s.AccessToken() != ""
}

func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Session) RefreshToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

// Expiring reports whether the access token should be refreshed before use.
// Tokens without a readable exp claim never expire locally.
func (s *Session) Expiring(now time.Time) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens.RefreshToken == "" || s.expiresAt.IsZero() {
		return false
	}
	return now.Add(refreshLeeway).After(s.expiresAt)
}

func tokenExpiry(access string) time.Time {
	if access == "" {
		return time.Time{}
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
}

// refresh swaps the refresh token for a new pair unless the access token
// has already moved on from stale. Concurrent callers wait for one refresh.
func (c *Client) refresh(ctx context.Context, stale string) error {
	c.Session.refreshMu.Lock()
	defer c.Session.refreshMu.Unlock()
	if cur := c.Session.AccessToken(); cur != "" && cur != stale {
		return nil
	}
	old := c.Session.RefreshToken()
	if old == "" {
		return &Error{Status: http.StatusUnauthorized, Message: "no refresh token", Path: "/oauth/token"}
	}
	var out domain.AuthTokens
	err := c.do(ctx, http.MethodPost, "/oauth/token", tokenRequest{GrantType: "refresh_token", RefreshToken: old}, &out, callOpts{})
	if err != nil {
		c.Logger.Info("token_refresh_failed", "err", err)
		return err
	}
	if out.RefreshToken == "" {
		out.RefreshToken = old
	}
	c.Session.SetTokens(out)
	c.Logger.Debug("token_refreshed")
	return nil
}
