package match

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultCoverURL is the hosted artwork applied to generated playlists.
const defaultCoverURL = "https://i.ibb.co/vH2b2Xp/spotify-match-cover.jpg"

// maxCoverBytes bounds the downloaded artwork; the provider rejects encoded
// payloads above 256 KB anyway.
const maxCoverBytes = 256 << 10

const coverFetchTimeout = 10 * time.Second

// CoverSource supplies playlist cover artwork as base64-encoded JPEG.
type CoverSource interface {
	JPEGBase64(ctx context.Context) (string, error)
}

// RemoteCover fetches the artwork from a fixed URL and encodes it.
type RemoteCover struct {
	url        string
	httpClient *http.Client
}

// RemoteCoverOption configures a RemoteCover.
type RemoteCoverOption func(*RemoteCover)

// WithCoverURL overrides the artwork URL. Used in tests.
func WithCoverURL(u string) RemoteCoverOption {
	return func(c *RemoteCover) { c.url = u }
}

// WithCoverHTTPClient overrides the HTTP client used for the fetch.
func WithCoverHTTPClient(hc *http.Client) RemoteCoverOption {
	return func(c *RemoteCover) { c.httpClient = hc }
}

// NewRemoteCover creates a CoverSource backed by the hosted artwork.
func NewRemoteCover(opts ...RemoteCoverOption) *RemoteCover {
	c := &RemoteCover{
		url:        defaultCoverURL,
		httpClient: &http.Client{Timeout: coverFetchTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// JPEGBase64 downloads the artwork and returns it base64-encoded.
func (c *RemoteCover) JPEGBase64(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("creating cover request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching cover image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return "", fmt.Errorf("reading cover image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
