package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brunovale/go-spotify-match/internal/errs"
)

func TestCreatePlaylist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.URL.EscapedPath(); got != "/users/user%201/playlists" {
			t.Errorf("path = %q, want escaped user id", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["name"] != "Our Match" {
			t.Errorf("name = %v, want Our Match", body["name"])
		}
		if body["public"] != false {
			t.Errorf("public = %v, want false", body["public"])
		}
		if body["collaborative"] != false {
			t.Errorf("collaborative = %v, want false", body["collaborative"])
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Playlist{
			ID:           "pl1",
			Name:         "Our Match",
			ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/playlist/pl1"},
		})
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	got, err := c.CreatePlaylist(context.Background(), "tok", "user 1", "Our Match", "shared favorites", false)
	if err != nil {
		t.Fatalf("CreatePlaylist() error = %v", err)
	}
	if got.ID != "pl1" {
		t.Errorf("playlist ID = %q, want pl1", got.ID)
	}
	if got.ExternalURLs["spotify"] == "" {
		t.Error("playlist external URL missing")
	}
}

func TestAddTracks(t *testing.T) {
	var gotURIs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlists/pl1/tracks" {
			t.Errorf("path = %q, want /playlists/pl1/tracks", r.URL.Path)
		}
		var body struct {
			URIs []string `json:"uris"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		gotURIs = body.URIs
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"snapshot_id":"snap"}`)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))

	uris := make([]string, 150)
	for i := range uris {
		uris[i] = fmt.Sprintf("spotify:track:%d", i)
	}
	if err := c.AddTracks(context.Background(), "tok", "pl1", uris); err != nil {
		t.Fatalf("AddTracks() error = %v", err)
	}
	if len(gotURIs) != maxTracksPerAdd {
		t.Errorf("sent %d uris, want capped at %d", len(gotURIs), maxTracksPerAdd)
	}
}

func TestUploadCover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/playlists/pl1/images" {
			t.Errorf("path = %q, want /playlists/pl1/images", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("Content-Type = %q, want image/jpeg", got)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("reading body: %v", err)
		}
		if string(body) != "anBlZy1ieXRlcw==" {
			t.Errorf("body = %q, want raw base64 payload", body)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	if err := c.UploadCover(context.Background(), "tok", "pl1", "anBlZy1ieXRlcw=="); err != nil {
		t.Fatalf("UploadCover() error = %v", err)
	}
}

func TestUploadCoverEmptyPayload(t *testing.T) {
	c := NewClient(WithBaseURL("http://unused.invalid"))
	if err := c.UploadCover(context.Background(), "tok", "pl1", ""); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestUploadCoverUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	err := c.UploadCover(context.Background(), "tok", "pl1", "payload")

	var upstream *errs.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("UploadCover() error = %T, want *errs.UpstreamError", err)
	}
}

func TestAddTracksNoURIsSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty uri list")
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	if err := c.AddTracks(context.Background(), "tok", "pl1", nil); err != nil {
		t.Fatalf("AddTracks() error = %v", err)
	}
}
