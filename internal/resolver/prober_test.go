package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProberStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/private":
			w.WriteHeader(http.StatusUnauthorized)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"dados":[]}`))
		}
	}))
	defer srv.Close()

	p := NewHTTPProber(srv.Client(), time.Second)
	tests := map[string]bool{
		"/missing": false,
		"/private": true,
		"/broken":  true,
		"/contas":  true,
	}
	for path, want := range tests {
		found, err := p.Probe(context.Background(), srv.URL+path)
		require.NoError(t, err, path)
		assert.Equal(t, want, found, path)
	}
}

func TestHTTPProberHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber(srv.Client(), 0)
	p.Token = func() string { return "tok-123" }

	_, err := p.Probe(context.Background(), srv.URL+"/contas")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Len(t, got.Get("X-Request-ID"), 36)
}

func TestHTTPProberNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	found, err := NewHTTPProber(nil, time.Second).Probe(context.Background(), url+"/contas")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestHTTPProberTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	_, err := NewHTTPProber(srv.Client(), 20*time.Millisecond).Probe(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "deadline"), err.Error())
}

func TestResolveAgainstHTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/dashboard/daily-flow" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := newTestResolver(t, Config{BaseURL: srv.URL},
		WithProber(NewHTTPProber(srv.Client(), time.Second)))

	path, err := r.Resolve(context.Background(), DashboardFluxo)
	require.NoError(t, err)
	assert.Equal(t, "/api/dashboard/daily-flow", path)
}
