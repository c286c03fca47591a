// Package preview backfills missing track preview URLs from the Deezer
// public catalog. Lookups are best-effort: a failure never affects the
// calculation that requested them.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.deezer.com"
	searchTimeout  = 8 * time.Second
	userAgent      = "spotify-match/1.0"
)

// Client is a Deezer search client. The search endpoint requires no
// authentication.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a Deezer search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: searchTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candidate is one ranked search result.
type candidate struct {
	Title   string `json:"title"`
	Preview string `json:"preview"`
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
}

// searchResponse is the Deezer search envelope.
type searchResponse struct {
	Data []candidate `json:"data"`
}

// FindPreview searches for a preview URL matching the track title and
// primary artist. Among returned candidates it prefers an exact
// case-insensitive match on both title and artist, otherwise the first
// candidate. Returns "" without error when nothing usable is found.
func (c *Client) FindPreview(ctx context.Context, title, artist string) (string, error) {
	query := fmt.Sprintf(`artist:"%s" track:"%s"`, searchTerm(artist), searchTerm(title))
	reqURL := c.baseURL + "/search?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading search response: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing search response: %w", err)
	}

	if len(result.Data) == 0 {
		return "", nil
	}

	best := result.Data[0]
	for _, item := range result.Data {
		if strings.EqualFold(item.Title, title) && strings.EqualFold(item.Artist.Name, artist) {
			best = item
			break
		}
	}
	return best.Preview, nil
}

// searchTerm strips embedded double quotes so a term cannot break out of its
// fielded query delimiter.
func searchTerm(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
