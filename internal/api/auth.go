package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

// defaultTokenTTL applies when the server omits expires_in.
const defaultTokenTTL = 3600 * time.Second

// accessTokenResponse mirrors the access_token endpoint payload.
type accessTokenResponse struct {
	Sub         string `json:"sub" cbor:"sub"`
	AccessToken string `json:"access_token" cbor:"access_token"`
	ExpiresIn   int64  `json:"expires_in" cbor:"expires_in"`
}

// AuthorizeURL builds the identity-provider authorize address a login
// popup should be opened at. nextURL is where the provider redirects the
// popup once the user completes (or abandons) the provider's own flow.
func (c *Client) AuthorizeURL(provider, nextURL string) string {
	return fmt.Sprintf("%s/idp/%s/authorize?next_url=%s", c.authBase, provider, url.QueryEscape(nextURL))
}

// Userinfo fetches the authenticated account's profile.
func (c *Client) Userinfo(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, "GET", c.authBase+"/userinfo", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// AccessToken mints a fresh short-lived bearer token for the current
// session cookie.
func (c *Client) AccessToken(ctx context.Context) (*models.AccessToken, error) {
	var resp accessTokenResponse
	if err := c.do(ctx, "GET", c.authBase+"/access_token", nil, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrAPIRequest)
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &models.AccessToken{
		Subject: resp.Sub,
		Value:   resp.AccessToken,
		TTL:     ttl,
	}, nil
}
