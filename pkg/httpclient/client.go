// Package httpclient is a client for the evaluator's monitor
// server: remote evaluation, syntax checks, stats and health.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/monitor"
)

// ClientOption configures an APIClient via functional options.
type ClientOption func(*APIClient)

// APIClient wraps net/http.Client for calling a monitor server.
// Defaults allow NewAPIClient(url) with zero options.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError is returned for non-2xx responses. Message holds the
// server's "error" field when present, else the raw body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned HTTP %d: %s", e.StatusCode, e.Message)
}

// NewAPIClient creates an API client targeting the given base URL.
func NewAPIClient(baseURL string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *APIClient) { c.httpClient.Timeout = d }
}

// WithToken sends the token as a bearer credential, for servers
// behind an authenticating proxy.
func WithToken(token string) ClientOption {
	return func(c *APIClient) { c.token = token }
}

// Evaluate submits code for evaluation and returns the report.
func (c *APIClient) Evaluate(
	ctx context.Context, req monitor.EvaluateRequest,
) (*exercise.Report, error) {
	var report exercise.Report
	if err := c.do(ctx, http.MethodPost, "/evaluate", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Check syntax-checks code without running it. The returned
// message is empty when the code compiles.
func (c *APIClient) Check(ctx context.Context, code string) (string, error) {
	var resp monitor.CheckResponse
	body := map[string]string{"code": code}
	if err := c.do(ctx, http.MethodPost, "/check", body, &resp); err != nil {
		return "", err
	}
	if resp.Valid || resp.Error == nil {
		return "", nil
	}
	return *resp.Error, nil
}

// Stats returns the server's collector statistics.
func (c *APIClient) Stats(ctx context.Context) (*monitor.CollectorStats, error) {
	var stats monitor.CollectorStats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health returns nil when the server reports itself healthy.
func (c *APIClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// BaseURL returns the configured base URL.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// do sends a request with an optional JSON body and decodes a
// JSON response into out when out is non-nil.
func (c *APIClient) do(
	ctx context.Context, method, path string, in, out any,
) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
