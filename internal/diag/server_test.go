package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance/internal/log"
	"finance/internal/middleware/ratelimit"
	"finance/internal/resolver"
)

const backendURL = "https://api.example.test"

type readyFunc func(context.Context) error

func (f readyFunc) Ready(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	prober := resolver.ProberFunc(func(_ context.Context, url string) (bool, error) {
		return strings.HasSuffix(url, "/accounts") || strings.HasSuffix(url, "/planos"), nil
	})
	res, err := resolver.New(resolver.Config{BaseURL: backendURL}, resolver.WithProber(prober))
	require.NoError(t, err)

	s := NewServer(":0", res, log.Discard(), opts...)
	srv := httptest.NewServer(s.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = do(t, http.MethodGet, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, WithReadyCheck(readyFunc(func(context.Context) error {
		return errors.New("database down")
	})))

	resp := do(t, http.MethodGet, srv.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestResolveThenListThenInvalidate(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/routes/accounts/resolve")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var resolved resolveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&resolved))
	assert.Equal(t, resolver.Accounts, resolved.Key)
	assert.Equal(t, "/accounts", resolved.Path)
	assert.Equal(t, backendURL+"/accounts", resolved.URL)

	resp = do(t, http.MethodPost, srv.URL+"/routes/plans/resolve")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/routes")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed routesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Equal(t, backendURL, listed.BaseURL)
	require.Len(t, listed.Routes, 2)
	assert.Equal(t, resolver.Accounts, listed.Routes[0].Key)
	assert.Equal(t, "/planos", listed.Routes[1].Path)

	resp = do(t, http.MethodDelete, srv.URL+"/routes/accounts")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/routes")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Routes, 1)

	resp = do(t, http.MethodDelete, srv.URL+"/routes")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/routes")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Empty(t, listed.Routes)
}

func TestUnknownRouteKey(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/routes/wallets/resolve")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResolveWithoutBaseURL(t *testing.T) {
	res, err := resolver.New(resolver.Config{})
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(":0", res, log.Discard()).Handler)
	defer srv.Close()

	resp := do(t, http.MethodPost, srv.URL+"/routes/accounts/resolve")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRouteMutationsAreRateLimited(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 1, Burst: 1})
	t.Cleanup(limiter.Stop)
	srv := newTestServer(t, WithRateLimit(limiter))

	resp := do(t, http.MethodPost, srv.URL+"/routes/accounts/resolve")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/routes")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Reads are never limited.
	resp = do(t, http.MethodGet, srv.URL+"/routes")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
