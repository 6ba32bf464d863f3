// Package client provides an HTTP client for the control plane route API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/dvr/internal/brand"
	"grimm.is/dvr/internal/routing"
)

// ErrRouteNotFound is returned by DeleteRoute when the destination is absent.
var ErrRouteNotFound = errors.New("route not found")

// Stats mirrors the control plane statistics response.
// Defined locally to avoid importing the server packages.
type Stats struct {
	StartTime     time.Time `json:"start_time" yaml:"start_time"`
	RoutesAdded   uint64    `json:"routes_added" yaml:"routes_added"`
	RoutesDeleted uint64    `json:"routes_deleted" yaml:"routes_deleted"`
	APIRequests   uint64    `json:"api_requests" yaml:"api_requests"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// HTTPClient talks to one control plane.
type HTTPClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// ClientOption configures the HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout. It does not apply to Watch.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// NewHTTPClient creates a new HTTPClient for the given base URL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  brand.UserAgent(brand.Version),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dialer:     websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ListRoutes returns the control plane's route table.
func (c *HTTPClient) ListRoutes(ctx context.Context) ([]routing.Route, error) {
	var routes []routing.Route
	if err := c.doRequest(ctx, http.MethodGet, "/routes", nil, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

type addRouteBody struct {
	Destination string `json:"destination"`
	NextHop     string `json:"next_hop"`
	Metric      *int   `json:"metric,omitempty"`
}

// AddRoute adds or replaces a route. A nil metric lets the server apply its default.
func (c *HTTPClient) AddRoute(ctx context.Context, destination, nextHop string, metric *int) error {
	body := addRouteBody{Destination: destination, NextHop: nextHop, Metric: metric}
	return c.doRequest(ctx, http.MethodPost, "/routes", body, nil)
}

// DeleteRoute deletes the route for destination.
func (c *HTTPClient) DeleteRoute(ctx context.Context, destination string) error {
	path := "/routes?destination=" + url.QueryEscape(destination)
	err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", destination, ErrRouteNotFound)
	}
	return err
}

// Stats returns the control plane statistics.
func (c *HTTPClient) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.doRequest(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health returns nil if the control plane reports healthy.
func (c *HTTPClient) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("control plane status %q", resp.Status)
	}
	return nil
}
