package chatbot

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

	"chat-forwarder/internal/domain"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
	maxErrorBytes    = 4096
)

// HTTPStatusError captures non-2xx backend responses. Body holds the
// (truncated) response text for diagnostics.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("chatbot: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// DiagnosticBody returns the backend's error body.
func (e *HTTPStatusError) DiagnosticBody() string {
	return e.Body
}

// Client posts chat content to the backend's /api/chat endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient creates a Client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("chatbot: base URL must not be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("chatbot: parse base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("chatbot: base URL %q must be an absolute http(s) URL", baseURL)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func chatURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/api/chat"
}

// resolvedHTTPClient falls back to a default client when the field was
// cleared (e.g. by WithHTTPClient(nil)).
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// Chat posts payload to {baseURL}/api/chat and returns the raw JSON body of a
// 2xx response. Non-2xx responses yield *HTTPStatusError; a 2xx body that is
// not JSON yields domain.ErrMalformedBackendResponse.
func (c *Client) Chat(ctx context.Context, payload domain.BackendPayload) (domain.BackendReply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.BackendReply{}, fmt.Errorf("chatbot: marshal request: %w", err)
	}

	target := chatURL(c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return domain.BackendReply{}, fmt.Errorf("chatbot: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, raw, err := c.doJSONRequest(req, target)
	if err != nil {
		return domain.BackendReply{}, err
	}
	if !json.Valid(raw) {
		return domain.BackendReply{}, fmt.Errorf("chatbot: status %d: %w", status, domain.ErrMalformedBackendResponse)
	}
	return domain.BackendReply{StatusCode: status, Body: json.RawMessage(raw)}, nil
}

func (c *Client) doJSONRequest(req *http.Request, target string) (int, []byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("chatbot: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBytes))
		return res.StatusCode, nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        target,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("chatbot: read response body: %w", err)
	}
	return res.StatusCode, buf, nil
}
