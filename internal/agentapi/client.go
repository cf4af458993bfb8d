// Package agentapi is the HTTP client for the customer support agent
// backend: POST /support and GET /health.
package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is where the agent backend listens in development.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds every call; LLM-backed requests are slow.
	DefaultTimeout = 60 * time.Second

	maxErrorBody = 64 << 10
)

// Client talks to the agent backend. Each call makes exactly one attempt.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client built by NewClient.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTransport sends requests through rt, still wrapped with otel
// instrumentation.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = otelhttp.NewTransport(rt) }
}

// NewClient returns a client for the backend at baseURL, or DefaultBaseURL
// when baseURL is empty. A trailing slash is ignored.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration { return c.http.Timeout }

// SubmitQuery sends one support query through the agent workflow.
func (c *Client) SubmitQuery(ctx context.Context, query string) (*SupportResponse, error) {
	payload, err := json.Marshal(SupportRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("marshaling support request: %w", err)
	}

	var result SupportResponse
	if err := c.do(ctx, "submit query", http.MethodPost, "/support", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHealth fetches backend liveness.
func (c *Client) GetHealth(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.do(ctx, "health check", http.MethodGet, "/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &BackendError{Op: op, StatusCode: resp.StatusCode, Detail: parseDetail(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &NetworkError{Op: op, Err: ctxErr}
		}
		return &BackendError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("decoding %s response: %v", path, err),
		}
	}
	return nil
}

// parseDetail extracts the "detail" field of an error body. A string detail
// is returned as-is, anything structured is returned as compact JSON.
func parseDetail(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	if string(eb.Detail) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, eb.Detail); err != nil {
		return ""
	}
	return buf.String()
}
