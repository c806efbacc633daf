// Package client calls the finance backend through resolved routes and
// unwraps its response envelopes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"finance/internal/envelope"
	"finance/internal/log"
	"finance/internal/resolver"
)

// DefaultTimeout bounds each backend call.
const DefaultTimeout = 15 * time.Second

// TokenSource returns the current bearer token, or "" when signed out.
type TokenSource func() string

type Client struct {
	resolver       *resolver.Resolver
	httpClient     *http.Client
	token          TokenSource
	onUnauthorized func(ctx context.Context, err *envelope.APIError)
	logger         *log.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTokenSource(token TokenSource) Option {
	return func(c *Client) { c.token = token }
}

// WithUnauthorizedHandler registers fn to run whenever the backend answers
// 401, typically to drop the stored session.
func WithUnauthorizedHandler(fn func(ctx context.Context, err *envelope.APIError)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentClient) }
}

func New(res *resolver.Resolver, opts ...Option) *Client {
	c := &Client{
		resolver:   res,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do resolves key, appends suffix, sends body as JSON and decodes the
// unwrapped payload into out. out and body may be nil. A status of 400 or
// more is returned as *envelope.APIError.
func (c *Client) Do(ctx context.Context, method string, key resolver.RouteKey, suffix string, query url.Values, body, out any) error {
	target, err := c.resolver.ResolveURL(ctx, key, suffix)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", key, err)
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := ""
	if c.token != nil {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.DebugContext(ctx, "Calling backend",
		log.FieldMethod, method,
		log.FieldURL, target,
		"token_present", token != "")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := envelope.NewAPIError(resp.StatusCode, method, target, raw)
		c.logger.ErrorContext(ctx, "Backend request failed",
			log.NewFields().
				WithOperation(log.OpRequest).
				WithRoute(string(key), c.resolver.BaseURL()).
				WithHTTPRequest(method, target).
				WithHTTPResponse(resp.StatusCode, time.Since(start).Milliseconds()).
				WithError(apiErr).
				ToSlice()...)
		if apiErr.IsUnauthorized() && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := envelope.DecodeInto(raw, out); err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	return nil
}

func get[T any](ctx context.Context, c *Client, key resolver.RouteKey, suffix string, query url.Values) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodGet, key, suffix, query, nil, &out)
	return out, err
}

func send[T any](ctx context.Context, c *Client, method string, key resolver.RouteKey, suffix string, body any) (T, error) {
	var out T
	err := c.Do(ctx, method, key, suffix, nil, body, &out)
	return out, err
}
