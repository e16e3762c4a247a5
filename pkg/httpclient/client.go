package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient uses browser-like headers and asks for JSON.
	// Used for the catalog and ratings APIs.
	BrowserClient ClientType = "browser"

	// CloudflareClient uses simple headers (like curl) to avoid 403 (Forbidden) errors
	// Used for Cloudflare-protected sites that block browser-like User-Agents
	CloudflareClient ClientType = "cloudflare"
)

// Config controls timeouts and the retry policy.
type Config struct {
	Timeout   time.Duration // per attempt
	Retries   int           // attempts after the first one
	BaseDelay time.Duration // first backoff delay, doubled per attempt
}

// DefaultConfig matches what the upstream APIs tolerate.
func DefaultConfig() Config {
	return Config{
		Timeout:   20 * time.Second,
		Retries:   3,
		BaseDelay: 500 * time.Millisecond,
	}
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// HTTPClient wraps an http.Client with configuration
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
	cfg        Config
}

// NewClientWithConfig creates a new HTTP client with the specified type and config
func NewClientWithConfig(clientType ClientType, cfg Config) *HTTPClient {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &HTTPClient{
		client:     client,
		clientType: clientType,
		cfg:        cfg,
	}
}

// Do executes an HTTP request with the appropriate headers for the client type.
// Connection errors and 5xx responses are retried with exponential backoff;
// the last response or error is returned once attempts run out. Only
// body-less requests are safe to retry.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)

	var resp *http.Response
	err := Retry(req.Context(), c.cfg.Retries+1, c.cfg.BaseDelay, func() error {
		r, err := c.client.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return Permanent(err)
			}
			return err
		}
		if r.StatusCode >= 500 {
			resp = r
			return &StatusError{URL: req.URL.String(), Code: r.StatusCode}
		}
		resp = r
		return nil
	}, func() {
		// Drop a retried 5xx body before the next attempt.
		if resp != nil {
			drainAndClose(resp.Body)
			resp = nil
		}
	})

	var statusErr *StatusError
	if errors.As(err, &statusErr) && resp != nil {
		// Hand the final 5xx response to the caller like any other status.
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Get is a convenience method for GET requests
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// GetBody fetches url and returns the body of a 2xx response.
// Other statuses are reported as *StatusError.
func (c *HTTPClient) GetBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// GetJSON fetches url and decodes a 2xx JSON body into v.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, v interface{}) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}
	return nil
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.8")

	case CloudflareClient:
		// Simple headers like curl to avoid 403 (Forbidden) errors from Cloudflare
		// Cloudflare allows simple tools like curl but blocks browser-like User-Agents
		req.Header.Set("User-Agent", "curl/8.7.1")
		req.Header.Set("Accept", "*/*")

	default:
		// Default: use Go's default User-Agent
	}
}

func drainAndClose(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
