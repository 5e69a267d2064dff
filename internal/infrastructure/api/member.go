package api

import (
	"context"
	"net/http"

	"storefront/internal/domain"
)

type profileRequest struct {
	BusinessID int `json:"businessId"`
	StoreID    int `json:"storeId,omitempty"`
}

// Login exchanges credentials for tokens. The caller decides whether to keep
// them in the session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthTokens, error) {
	var out domain.AuthTokens
	err := c.do(ctx, http.MethodPost, "/oauth/token", tokenRequest{GrantType: "password", Username: email, Password: password}, &out, callOpts{})
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/oauth/logout", profileRequest{BusinessID: c.BusinessID}, nil, callOpts{})
}

func (c *Client) GetProfile(ctx context.Context, storeID int) (domain.MemberProfile, error) {
	var out domain.MemberProfile
	err := c.post(ctx, "/member/profile.json", profileRequest{c.BusinessID, storeID}, &out, callOpts{auth: true})
	return out, err
}
