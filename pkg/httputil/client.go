package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/pampasroute/pkg/cache"
	"github.com/matzehuels/pampasroute/pkg/observability"
)

const (
	httpTimeout     = 15 * time.Second
	maxResponseSize = 8 << 20
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// StatusError is returned for non-2xx responses. Body holds at most the
// first kilobyte of the response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Client provides the shared HTTP plumbing of the compute backend client and
// the OSRM router: default headers, response caching and retries.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	namespace string
	ttl       time.Duration
	headers   map[string]string
	attempts  int
	delay     time.Duration
}

// NewClient creates a Client. Cached responses are stored under namespace
// with the given TTL; pass cache.NewNullCache() to disable caching.
// Headers are applied to all requests made through this client.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		attempts:  3,
		delay:     time.Second,
	}
}

// NewHTTPClient creates an HTTP client with the standard request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithRetry sets the retry policy. attempts < 1 is treated as 1.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	c.attempts = max(attempts, 1)
	c.delay = delay
	return c
}

// Cached returns the cached bytes for key, or calls fetch with retries and
// caches its result. If refresh is true the cache is not read.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	full := c.namespace + ":" + key
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, full); err == nil && ok {
			return data, nil
		}
	}
	var data []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		data, err = fetch()
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, full, data, c.ttl)
	return data, nil
}

// PostBytes POSTs a JSON payload with retries and returns the response body.
func (c *Client) PostBytes(ctx context.Context, rawURL string, payload []byte) ([]byte, error) {
	var body []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		body, err = c.Do(ctx, http.MethodPost, rawURL, payload)
		return err
	})
	return body, err
}

// Do performs a single request and returns the body of a 2xx response.
// Transport failures and 5xx responses are returned as RetryableError.
func (c *Client) Do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	if err := checkStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	if len(body) > 1024 {
		body = body[:1024]
	}
	se := &StatusError{Code: code, Body: string(bytes.TrimSpace(body))}
	switch {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, se)
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: %w", ErrNetwork, se)}
	default:
		return se
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
