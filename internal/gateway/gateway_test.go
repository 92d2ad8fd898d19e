package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promopage-solution/mall-integration-service/internal/model"
	"github.com/promopage-solution/mall-integration-service/internal/store"
)

type fakeCredStore struct {
	mu    sync.Mutex
	creds map[string]*model.MallCredential
	puts  int
}

func newFakeCredStore(creds ...*model.MallCredential) *fakeCredStore {
	s := &fakeCredStore{creds: make(map[string]*model.MallCredential)}
	for _, c := range creds {
		s.creds[c.MallID] = c
	}
	return s
}

func (s *fakeCredStore) Get(ctx context.Context, mallID string) (*model.MallCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[mallID]
	if !ok {
		return nil, store.ErrCredentialNotFound
	}
	return cred, nil
}

func (s *fakeCredStore) Put(ctx context.Context, cred *model.MallCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.MallID] = cred
	s.puts++
	return nil
}

// tokenServer fakes the platform's OAuth token endpoint.
func tokenServer(t *testing.T, status int, calls *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    7200,
		})
	}))
}

func newTestGateway(creds CredentialStore, tokenURL, apiBase string) *Gateway {
	oauth := NewOAuthClient(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenURL,
	}, nil)
	return New(creds, oauth, apiBase)
}

func staleCred() *model.MallCredential {
	return &model.MallCredential{MallID: "testmall", AccessToken: "old-access", RefreshToken: "old-refresh"}
}

func TestDo_RefreshAndRetryOn401(t *testing.T) {
	var tokenCalls, upstreamCalls int
	tokens := tokenServer(t, http.StatusOK, &tokenCalls)
	defer tokens.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	creds := newFakeCredStore(staleCred())
	gw := newTestGateway(creds, tokens.URL, upstream.URL)

	resp, err := gw.Do(context.Background(), "testmall", http.MethodGet, "/api/v2/admin/products", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, upstreamCalls)
	assert.Equal(t, 1, tokenCalls)

	// The store must hold the new pair, not the old one.
	cred, err := creds.Get(context.Background(), "testmall")
	assert.NoError(t, err)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, "new-refresh", cred.RefreshToken)
	assert.Equal(t, 7200, cred.ExpiresIn)
}

func TestDo_RefreshRejectedIsAuthFailed(t *testing.T) {
	var tokenCalls, upstreamCalls int
	tokens := tokenServer(t, http.StatusUnauthorized, &tokenCalls)
	defer tokens.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	creds := newFakeCredStore(staleCred())
	gw := newTestGateway(creds, tokens.URL, upstream.URL)

	_, err := gw.Do(context.Background(), "testmall", http.MethodGet, "/api/v2/admin/products", nil, nil)
	assert.ErrorIs(t, err, ErrAuthFailed)
	// No retry after the refresh is rejected.
	assert.Equal(t, 1, upstreamCalls)
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, 0, creds.puts)
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	var tokenCalls, upstreamCalls int
	tokens := tokenServer(t, http.StatusOK, &tokenCalls)
	defer tokens.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	creds := newFakeCredStore(staleCred())
	gw := newTestGateway(creds, tokens.URL, upstream.URL)

	_, err := gw.Do(context.Background(), "testmall", http.MethodGet, "/api/v2/admin/products", nil, nil)
	assert.ErrorIs(t, err, ErrAuthFailed)
	// Exactly one refresh-and-retry, never a loop.
	assert.Equal(t, 2, upstreamCalls)
	assert.Equal(t, 1, tokenCalls)
}

func TestDo_UpstreamErrorPassthrough(t *testing.T) {
	var tokenCalls int
	tokens := tokenServer(t, http.StatusOK, &tokenCalls)
	defer tokens.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"code":422,"message":"invalid product"}}`))
	}))
	defer upstream.Close()

	creds := newFakeCredStore(staleCred())
	gw := newTestGateway(creds, tokens.URL, upstream.URL)

	_, err := gw.Do(context.Background(), "testmall", http.MethodGet, "/api/v2/admin/products/9", nil, nil)

	var upstreamErr *UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnprocessableEntity, upstreamErr.Status)
	assert.Contains(t, string(upstreamErr.Body), "invalid product")
	// A business error never triggers a refresh.
	assert.Equal(t, 0, tokenCalls)
}

func TestDo_CredentialNotFound(t *testing.T) {
	gw := newTestGateway(newFakeCredStore(), "http://unused", "http://unused")

	_, err := gw.Do(context.Background(), "unknownmall", http.MethodGet, "/api/v2/admin/products", nil, nil)
	assert.ErrorIs(t, err, store.ErrCredentialNotFound)
}

func TestDo_QueryAndBodyForwarded(t *testing.T) {
	var tokenCalls int
	tokens := tokenServer(t, http.StatusOK, &tokenCalls)
	defer tokens.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "value", body["field"])
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	gw := newTestGateway(newFakeCredStore(staleCred()), tokens.URL, upstream.URL)

	_, err := gw.Do(context.Background(), "testmall", http.MethodPost, "/api/v2/admin/products",
		url.Values{"limit": {"100"}}, map[string]string{"field": "value"})
	assert.NoError(t, err)
}
