package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

// OAuthConfig holds the platform app registration. TokenURL may contain a
// {mall_id} placeholder for platforms with per-mall token hosts.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RedirectURI  string
}

// OAuthClient talks to the platform's token endpoint using HTTP basic client
// authentication.
type OAuthClient struct {
	cfg        OAuthConfig
	httpClient *http.Client
}

// NewOAuthClient creates a new OAuthClient. Passing a nil client uses a
// default with a connection pool sized for bursty refresh traffic.
func NewOAuthClient(cfg OAuthConfig, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		}
	}
	return &OAuthClient{cfg: cfg, httpClient: httpClient}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ExchangeCode completes the install flow: authorization_code grant for the
// first token pair of a mall.
func (c *OAuthClient) ExchangeCode(ctx context.Context, mallID, code string) (*model.MallCredential, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.cfg.RedirectURI},
	}
	return c.exchange(ctx, mallID, form)
}

// Refresh trades the stored refresh token for a new token pair.
func (c *OAuthClient) Refresh(ctx context.Context, mallID, refreshToken string) (*model.MallCredential, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.exchange(ctx, mallID, form)
}

func (c *OAuthClient) exchange(ctx context.Context, mallID string, form url.Values) (*model.MallCredential, error) {
	endpoint := strings.ReplaceAll(c.cfg.TokenURL, "{mall_id}", mallID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		// A rejected grant (revoked refresh token, bad code) is terminal.
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s", ErrAuthFailed, resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, err
	}

	return &model.MallCredential{
		MallID:       mallID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ObtainedAt:   time.Now(),
		ExpiresIn:    tok.ExpiresIn,
	}, nil
}
