// Package spotify is a thin REST client for the Spotify Web API covering
// the endpoints the match engine needs: top items and playlist creation.
//
// Failures are classified into the engine's error kinds: 401 maps to
// errs.ErrAuthRequired, 429 to errs.ErrRateLimited, request timeouts to
// errs.ErrUpstreamTimeout and anything else to an errs.UpstreamError
// carrying the endpoint. No call is retried; retry policy belongs to the
// caller.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/brunovale/go-spotify-match/internal/errs"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	requestTimeout = 20 * time.Second

	// pageSize is the provider-side maximum items per page.
	pageSize = 50
)

// Client issues authenticated requests against the Spotify Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Spotify API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiErrorBody is Spotify's regular error envelope.
type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// get issues an authenticated GET. endpoint is either a path relative to the
// base URL or an absolute URL (pagination cursors are absolute).
func (c *Client) get(ctx context.Context, token, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, token, endpoint, nil, out)
}

// post issues an authenticated POST with a JSON body.
func (c *Client) post(ctx context.Context, token, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, token, endpoint, body, out)
}

func (c *Client) do(ctx context.Context, method, token, endpoint string, body, out any) error {
	reqURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		reqURL = c.baseURL + endpoint
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s", errs.ErrUpstreamTimeout, endpoint)
		}
		return &errs.UpstreamError{Endpoint: endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(endpoint, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &errs.UpstreamError{Endpoint: endpoint, Message: "decoding response: " + err.Error()}
		}
	}
	return nil
}

// putRaw issues an authenticated PUT with a preencoded payload. Used for the
// cover image endpoint, which takes raw base64 rather than JSON.
func (c *Client) putRaw(ctx context.Context, token, endpoint, contentType string, body io.Reader) error {
	reqURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		reqURL = c.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s", errs.ErrUpstreamTimeout, endpoint)
		}
		return &errs.UpstreamError{Endpoint: endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(endpoint, resp)
	}
	return nil
}

func (c *Client) statusError(endpoint string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return errs.ErrAuthRequired
	case http.StatusTooManyRequests:
		c.logger.Warn("rate limit hit", "endpoint", endpoint)
		return errs.ErrRateLimited
	}

	message := resp.Status
	var body apiErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		message = body.Error.Message
	}
	return &errs.UpstreamError{
		Endpoint: endpoint,
		Status:   resp.StatusCode,
		Message:  message,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
