package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/brunovale/go-spotify-match/internal/errs"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeRange
		wantErr bool
	}{
		{"", TimeRangeMedium, false},
		{"short_term", TimeRangeShort, false},
		{"medium_term", TimeRangeMedium, false},
		{"long_term", TimeRangeLong, false},
		{"all_time", "", true},
		{"SHORT_TERM", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeRange(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeRange(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimeRange(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// pagedServer serves /me/top/tracks as a sequence of pages, each holding
// perPage items, up to total items overall.
func pagedServer(t *testing.T, total, perPage int, requests *int) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		count := min(perPage, total-offset)
		items := make([]Track, 0, count)
		for i := 0; i < count; i++ {
			items = append(items, Track{ID: fmt.Sprintf("t%d", offset+i)})
		}

		next := ""
		if offset+count < total {
			next = fmt.Sprintf("%s/me/top/tracks?limit=50&offset=%d", server.URL, offset+count)
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items, "next": next})
	}))
	return server
}

func TestFetchTopTracksPaginates(t *testing.T) {
	requests := 0
	server := pagedServer(t, 130, 50, &requests)
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	got, err := c.FetchTopTracks(context.Background(), "tok", TimeRangeMedium, 120)
	if err != nil {
		t.Fatalf("FetchTopTracks() error = %v", err)
	}
	if len(got) != 120 {
		t.Errorf("got %d tracks, want exactly 120", len(got))
	}
	if requests != 3 {
		t.Errorf("made %d requests, want 3 pages of 50", requests)
	}
	if got[0].ID != "t0" || got[119].ID != "t119" {
		t.Errorf("page order broken: first %q last %q", got[0].ID, got[119].ID)
	}
}

func TestFetchTopTracksCursorExhaustedBeforeLimit(t *testing.T) {
	requests := 0
	server := pagedServer(t, 30, 50, &requests)
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	got, err := c.FetchTopTracks(context.Background(), "tok", TimeRangeShort, 200)
	if err != nil {
		t.Fatalf("FetchTopTracks() error = %v", err)
	}
	if len(got) != 30 {
		t.Errorf("got %d tracks, want all 30 available", len(got))
	}
	if requests != 1 {
		t.Errorf("made %d requests, want 1", requests)
	}
}

func TestFetchTopTracksEmptyPageWithCursorStops(t *testing.T) {
	requests := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// A degenerate page: no items but a cursor that would loop forever.
		json.NewEncoder(w).Encode(map[string]any{
			"items": []Track{},
			"next":  server.URL + "/me/top/tracks?limit=50&offset=0",
		})
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	got, err := c.FetchTopTracks(context.Background(), "tok", TimeRangeMedium, 200)
	if err != nil {
		t.Fatalf("FetchTopTracks() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d tracks, want 0", len(got))
	}
	if requests != 1 {
		t.Errorf("made %d requests, want stop after 1", requests)
	}
}

func TestFetchTopTracksInvalidLimit(t *testing.T) {
	c := NewClient(WithBaseURL("http://unused.invalid"))
	if _, err := c.FetchTopTracks(context.Background(), "tok", TimeRangeMedium, 0); err == nil {
		t.Error("expected error for non-positive limit")
	}
}

func TestFetchTopArtists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/top/artists" {
			t.Errorf("path = %q, want /me/top/artists", r.URL.Path)
		}
		if got := r.URL.Query().Get("time_range"); got != "long_term" {
			t.Errorf("time_range = %q, want long_term", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []Artist{{ID: "a1", Name: "First", Genres: []string{"jazz"}}},
			"next":  "",
		})
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	got, err := c.FetchTopArtists(context.Background(), "tok", TimeRangeLong, 100)
	if err != nil {
		t.Fatalf("FetchTopArtists() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" || len(got[0].Genres) != 1 {
		t.Errorf("FetchTopArtists() = %+v, want one artist with genres", got)
	}
}

func TestFetchTopTracksErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"status":401,"message":"The access token expired"}}`, errs.ErrAuthRequired},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"status":429,"message":"Too many requests"}}`, errs.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(WithBaseURL(server.URL))
			_, err := c.FetchTopTracks(context.Background(), "tok", TimeRangeMedium, 50)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchTopTracks() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchTopTracksUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":{"status":502,"message":"Service unavailable"}}`)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	_, err := c.FetchTopTracks(context.Background(), "tok", TimeRangeMedium, 50)

	var upstream *errs.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("FetchTopTracks() error = %T, want *errs.UpstreamError", err)
	}
	if upstream.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", upstream.Status)
	}
	if upstream.Message != "Service unavailable" {
		t.Errorf("Message = %q, want provider message", upstream.Message)
	}
}

func TestFetchTopTracksTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient(
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
	)
	_, err := c.FetchTopTracks(context.Background(), "tok", TimeRangeMedium, 50)
	if !errors.Is(err, errs.ErrUpstreamTimeout) {
		t.Errorf("FetchTopTracks() error = %v, want ErrUpstreamTimeout", err)
	}
}
