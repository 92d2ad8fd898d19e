package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/promopage-solution/mall-integration-service/internal/model"
	"github.com/promopage-solution/mall-integration-service/internal/monitoring"
)

// CredentialStore is the credential lifecycle contract the gateway depends on.
type CredentialStore interface {
	Get(ctx context.Context, mallID string) (*model.MallCredential, error)
	Put(ctx context.Context, cred *model.MallCredential) error
}

// Gateway issues authenticated requests to the platform admin API on behalf
// of a mall. On a 401 it performs exactly one refresh-and-retry; a second 401
// surfaces ErrAuthFailed, so sustained auth failure never loops.
type Gateway struct {
	creds      CredentialStore
	oauth      *OAuthClient
	httpClient *http.Client
	apiBase    string // may contain a {mall_id} placeholder

	// Coalesces concurrent refreshes for the same mall so only one call
	// reaches the token endpoint at a time.
	refreshGroup singleflight.Group
}

// New creates a Gateway. apiBase is the admin API root, e.g.
// "https://{mall_id}.platform-api.example.com".
func New(creds CredentialStore, oauth *OAuthClient, apiBase string) *Gateway {
	return &Gateway{
		creds: creds,
		oauth: oauth,
		httpClient: &http.Client{
			// No client-level timeout; each request is governed by its context.
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		apiBase: strings.TrimRight(apiBase, "/"),
	}
}

// Response is a successful upstream response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do issues one authenticated request. Errors are surfaced per the taxonomy:
// store.ErrCredentialNotFound, ErrAuthFailed, *UpstreamError, ErrUpstreamTimeout.
func (g *Gateway) Do(ctx context.Context, mallID, method, path string, query url.Values, body interface{}) (*Response, error) {
	cred, err := g.creds.Get(ctx, mallID)
	if err != nil {
		return nil, err
	}

	resp, err := g.roundTrip(ctx, mallID, method, path, query, body, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return checkStatus(resp)
	}

	refreshed, err := g.refresh(ctx, mallID, cred.RefreshToken)
	if err != nil {
		return nil, err
	}

	resp, err = g.roundTrip(ctx, mallID, method, path, query, body, refreshed.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		monitoring.Alert("mall requires re-authorization", map[string]string{"mall_id": mallID})
		return nil, ErrAuthFailed
	}
	return checkStatus(resp)
}

// DoJSON issues a request and decodes a 2xx response body into out.
func (g *Gateway) DoJSON(ctx context.Context, mallID, method, path string, query url.Values, body, out interface{}) error {
	resp, err := g.Do(ctx, mallID, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Body, out)
}

// refresh exchanges the refresh token and persists the new pair before
// returning, so the retry always observes the refreshed credential. A mall's
// concurrent refreshes collapse into one token endpoint call.
func (g *Gateway) refresh(ctx context.Context, mallID, refreshToken string) (*model.MallCredential, error) {
	v, err, _ := g.refreshGroup.Do(mallID, func() (interface{}, error) {
		cred, err := g.oauth.Refresh(ctx, mallID, refreshToken)
		if err != nil {
			monitoring.TokenRefreshes.WithLabelValues("failed").Inc()
			monitoring.Alert("token refresh rejected", map[string]string{"mall_id": mallID})
			return nil, err
		}
		if err := g.creds.Put(ctx, cred); err != nil {
			monitoring.TokenRefreshes.WithLabelValues("failed").Inc()
			return nil, err
		}
		monitoring.TokenRefreshes.WithLabelValues("ok").Inc()
		log.Info().Str("mall_id", mallID).Msg("Access token refreshed")
		return cred, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.MallCredential), nil
}

func (g *Gateway) roundTrip(ctx context.Context, mallID, method, path string, query url.Values, body interface{}, token string) (*Response, error) {
	base := strings.ReplaceAll(g.apiBase, "{mall_id}", mallID)
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for key, values := range query {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	monitoring.UpstreamDuration.Observe(time.Since(start).Seconds())
	monitoring.GatewayRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// checkStatus turns non-auth upstream errors into *UpstreamError, unchanged.
func checkStatus(resp *Response) (*Response, error) {
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}
