package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// maxTracksPerAdd is the provider limit on URIs per add-tracks call.
const maxTracksPerAdd = 100

// CreatePlaylist creates a playlist owned by the given user.
func (c *Client) CreatePlaylist(ctx context.Context, token, userID, name, description string, public bool) (*Playlist, error) {
	body := map[string]any{
		"name":          name,
		"description":   description,
		"public":        public,
		"collaborative": false,
	}

	var playlist Playlist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := c.post(ctx, token, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracks appends up to 100 track URIs to the playlist.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > maxTracksPerAdd {
		uris = uris[:maxTracksPerAdd]
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.post(ctx, token, endpoint, map[string]any{"uris": uris}, nil)
}

// UploadCover replaces the playlist's cover image with the given
// base64-encoded JPEG.
func (c *Client) UploadCover(ctx context.Context, token, playlistID, jpegBase64 string) error {
	if jpegBase64 == "" {
		return fmt.Errorf("empty cover image payload")
	}

	endpoint := fmt.Sprintf("/playlists/%s/images", url.PathEscape(playlistID))
	return c.putRaw(ctx, token, endpoint, "image/jpeg", strings.NewReader(jpegBase64))
}
