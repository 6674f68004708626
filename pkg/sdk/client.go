// Package sdk is a typed Go client for the assessment recommender HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a recommender instance over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option customizes the Client.
type Option func(*Client)

// WithAPIKey sends the key as a Bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Recommend runs a recommendation query.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	var resp RecommendResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/recommendations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Ready returns the dependency health report.
func (c *Client) Ready(ctx context.Context) (*HealthReport, error) {
	var report HealthReport
	err := c.do(ctx, http.MethodGet, "/health/ready", nil, &report)
	// 503 still carries a report body worth returning.
	var apiErr *APIError
	if err != nil && !(asAPIError(err, &apiErr) && report.Status != "") {
		return nil, err
	}
	return &report, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sdk: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("sdk: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sdk: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, apiErr)
		if out != nil {
			// Some error responses (readiness) still carry a useful body.
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sdk: decode response: %w", err)
		}
	}
	return nil
}
