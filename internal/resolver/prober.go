package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Prober issues one probe against a full URL. found is true when the backend
// answered with anything other than 404. A transport failure is reported as
// an error and treated by the resolver as not found.
type Prober interface {
	Probe(ctx context.Context, url string) (found bool, err error)
}

// ProberFunc adapts a plain function to Prober.
type ProberFunc func(ctx context.Context, url string) (bool, error)

func (f ProberFunc) Probe(ctx context.Context, url string) (bool, error) {
	return f(ctx, url)
}

// HTTPProber probes with a GET request.
type HTTPProber struct {
	Client  *http.Client
	Timeout time.Duration
	// Token, when set, supplies a bearer token for each probe.
	Token func() string
}

// NewHTTPProber returns a prober using client, or http.DefaultClient if nil.
// timeout bounds each probe; zero leaves it to the caller's context.
func NewHTTPProber(client *http.Client, timeout time.Duration) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{Client: client, Timeout: timeout}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) (bool, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if p.Token != nil {
		if token := p.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode != http.StatusNotFound, nil
}
