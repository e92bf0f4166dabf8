// Package compute is the client of the external path-finding backend.
//
// The backend exposes one endpoint, POST /calcular_ruta, which takes the
// start and destination place names and answers with the chosen route plus
// every place and connection of the graph:
//
//	c := compute.NewClient("http://localhost:5000", nil)
//	res, err := c.Compute(ctx, "Plaza de Armas de Pampas", "Ostuna")
//	if errors.Is(err, route.ErrNoRoute) {
//	    // the backend found no path
//	}
//
// Transport failures and 5xx answers are retried before being reported as
// errors.ErrCodeNetwork. Responses are never cached: the backend may answer
// the same pair differently over time.
package compute

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/httputil"
	"github.com/matzehuels/pampasroute/pkg/observability"
	"github.com/matzehuels/pampasroute/pkg/route"
)

// Path is the backend endpoint, relative to the base URL.
const Path = "/calcular_ruta"

// DefaultBaseURL is where the backend listens when run locally.
const DefaultBaseURL = "http://localhost:5000"

// Client calls the path-finding backend.
type Client struct {
	base   string
	http   *httputil.Client
	logger *log.Logger
}

// NewClient creates a client for the backend at baseURL.
// A nil logger falls back to log.Default.
func NewClient(baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   httputil.NewClient(nil, "compute", 0, nil),
		logger: logger,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http.WithHTTPClient(h)
	return c
}

// WithRetry sets the retry policy for transient failures.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	c.http.WithRetry(attempts, delay)
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.base }

// Compute asks the backend for the route from start to dest.
//
// Empty names fail with errors.ErrCodeInvalidInput without a request.
// success=false (with any status) fails with an error wrapping
// route.ErrNoRoute. Unreachable backends fail with errors.ErrCodeNetwork and
// undecodable bodies with errors.ErrCodeInvalidResponse.
func (c *Client) Compute(ctx context.Context, start, dest string) (_ *route.Result, err error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(dest) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "select a start and a destination")
	}

	hooks := observability.Route()
	hooks.OnComputeStart(ctx, start, dest)
	began := time.Now()
	var stops int
	defer func() {
		hooks.OnComputeComplete(ctx, start, dest, stops, time.Since(began), err)
	}()

	body, err := c.post(ctx, route.Request{Start: start, Destination: dest})
	if err != nil {
		return nil, err
	}
	res, err := route.DecodeResponse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	stops = len(res.Stops)
	c.logger.Debug("route computed",
		"start", start,
		"destination", dest,
		"stops", stops,
		"minutes", res.Cost,
		"elapsed", time.Since(began))
	return res, nil
}

func (c *Client) post(ctx context.Context, req route.Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}

	body, err := c.http.PostBytes(ctx, c.base+Path, payload)
	if err == nil {
		return body, nil
	}

	// Backends answer unknown places with 4xx and a success=false body.
	var se *httputil.StatusError
	if stderrors.As(err, &se) && se.Code < 500 {
		if _, derr := route.DecodeResponse(strings.NewReader(se.Body)); stderrors.Is(derr, route.ErrNoRoute) {
			return nil, derr
		}
	}
	if ctx.Err() != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "compute request cancelled")
	}
	return nil, errors.Wrap(errors.ErrCodeNetwork, err, "compute request to %s failed", c.base)
}
