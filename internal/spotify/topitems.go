package spotify

import (
	"context"
	"fmt"
)

// TimeRange is a provider-defined recency bucket for top-item queries.
type TimeRange string

// The provider's time windows.
const (
	TimeRangeShort  TimeRange = "short_term"  // ~4 weeks
	TimeRangeMedium TimeRange = "medium_term" // ~6 months
	TimeRangeLong   TimeRange = "long_term"   // several years
)

// ParseTimeRange validates a time range string. The empty string defaults to
// medium_term.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return TimeRangeMedium, nil
	case TimeRangeShort, TimeRangeMedium, TimeRangeLong:
		return TimeRange(s), nil
	}
	return "", fmt.Errorf("invalid time range %q", s)
}

// page is one cursor page of a top-items response.
type page[T any] struct {
	Items []T    `json:"items"`
	Next  string `json:"next"`
}

// FetchTopTracks retrieves the user's top tracks for the time range,
// following pagination cursors until limit items are accumulated.
func (c *Client) FetchTopTracks(ctx context.Context, token string, timeRange TimeRange, limit int) ([]Track, error) {
	return fetchTopItems[Track](ctx, c, token, "tracks", timeRange, limit)
}

// FetchTopArtists retrieves the user's top artists for the time range,
// following pagination cursors until limit items are accumulated.
func (c *Client) FetchTopArtists(ctx context.Context, token string, timeRange TimeRange, limit int) ([]Artist, error) {
	return fetchTopItems[Artist](ctx, c, token, "artists", timeRange, limit)
}

// fetchTopItems pages through /me/top/{itemType} in provider-maximum pages
// of 50, stopping when limit is reached, the cursor is exhausted, or a page
// defensively reports zero items while a cursor is still present. The result
// is truncated to exactly limit even if the final page overshoots. Each page
// is attempted once; no internal retries.
func fetchTopItems[T any](ctx context.Context, c *Client, token, itemType string, timeRange TimeRange, limit int) ([]T, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("item cap must be positive, got %d", limit)
	}

	endpoint := fmt.Sprintf("/me/top/%s?limit=%d&time_range=%s", itemType, pageSize, timeRange)
	items := make([]T, 0, limit)

	for endpoint != "" && len(items) < limit {
		var p page[T]
		if err := c.get(ctx, token, endpoint, &p); err != nil {
			return nil, err
		}

		if len(p.Items) == 0 && p.Next != "" {
			c.logger.Warn("provider returned empty page with cursor present, stopping",
				"item_type", itemType)
			break
		}

		items = append(items, p.Items...)
		endpoint = p.Next
	}

	if len(items) > limit {
		items = items[:limit]
	}
	c.logger.Debug("fetched top items", "item_type", itemType, "count", len(items))
	return items, nil
}
