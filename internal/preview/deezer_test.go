package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFindPreview(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantPreview string
		wantErr     bool
	}{
		{
			name:        "no results",
			status:      http.StatusOK,
			body:        `{"data":[]}`,
			wantPreview: "",
		},
		{
			name:   "exact match preferred over earlier candidate",
			status: http.StatusOK,
			body: `{"data":[
				{"title":"Heroes (Live)","preview":"https://cdn/live.mp3","artist":{"name":"David Bowie"}},
				{"title":"heroes","preview":"https://cdn/exact.mp3","artist":{"name":"david bowie"}}
			]}`,
			wantPreview: "https://cdn/exact.mp3",
		},
		{
			name:   "first candidate when no exact match",
			status: http.StatusOK,
			body: `{"data":[
				{"title":"Heroes (Remastered)","preview":"https://cdn/first.mp3","artist":{"name":"David Bowie"}},
				{"title":"Heroes Cover","preview":"https://cdn/second.mp3","artist":{"name":"Someone Else"}}
			]}`,
			wantPreview: "https://cdn/first.mp3",
		},
		{
			name:   "title match with wrong artist falls back to first",
			status: http.StatusOK,
			body: `{"data":[
				{"title":"Covers Album","preview":"https://cdn/first.mp3","artist":{"name":"Tribute Band"}},
				{"title":"Heroes","preview":"https://cdn/wrong-artist.mp3","artist":{"name":"Tribute Band"}}
			]}`,
			wantPreview: "https://cdn/first.mp3",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			wantErr: true,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"data":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("path = %q, want /search", r.URL.Path)
				}
				query := r.URL.Query().Get("q")
				if !strings.Contains(query, `artist:"David Bowie"`) || !strings.Contains(query, `track:"Heroes"`) {
					t.Errorf("query = %q, want fielded artist and track terms", query)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(WithBaseURL(server.URL))
			got, err := c.FindPreview(context.Background(), "Heroes", "David Bowie")
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindPreview() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.wantPreview {
				t.Errorf("FindPreview() = %q, want %q", got, tt.wantPreview)
			}
		})
	}
}

func TestFindPreviewQuotedMetadataQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if want := `artist:"The Band" track:"She Said No"`; query != want {
			t.Errorf("query = %q, want %q", query, want)
		}
		if strings.Contains(query, `\`) {
			t.Errorf("query %q contains escape sequences", query)
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	if _, err := c.FindPreview(context.Background(), `She Said "No"`, `The "Band"`); err != nil {
		t.Fatalf("FindPreview() error = %v", err)
	}
}
