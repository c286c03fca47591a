package match

import (
	"strings"

	"github.com/brunovale/go-spotify-match/internal/compat"
	"github.com/brunovale/go-spotify-match/internal/session"
)

// TrackView is the flattened common-track representation returned to the
// caller and cached per session.
type TrackView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artists    string `json:"artists"`
	Album      string `json:"album"`
	ImageURL   string `json:"imageUrl"`
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl"`
	URI        string `json:"uri"`
	Popularity int    `json:"popularity"`
}

// ArtistView is the flattened common-artist representation.
type ArtistView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Genres     string `json:"genres"`
	ImageURL   string `json:"imageUrl"`
	URL        string `json:"url"`
	URI        string `json:"uri"`
	Popularity int    `json:"popularity"`
}

// AlbumView is the flattened common-album representation.
type AlbumView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Year       string `json:"year"`
	TrackCount int    `json:"trackCount"`
	ImageURL   string `json:"imageUrl"`
	URL        string `json:"url"`
}

// Result is one computed compatibility analysis. It is owned by the session
// that produced it: overwritten by each new calculation and deleted on
// calculation failure.
type Result struct {
	CommonTracks       []TrackView         `json:"commonTracks"`
	CommonArtists      []ArtistView        `json:"commonArtists"`
	CommonAlbums       []AlbumView         `json:"commonAlbums"`
	TopGenres          []compat.GenreCount `json:"topGenres"`
	CompatibilityScore int                 `json:"compatibilityScore"`
	User1Profile       *session.Profile    `json:"user1Profile"`
	User2Profile       *session.Profile    `json:"user2Profile"`
	TimeRange          string              `json:"timeRange"`
}

// PlaylistResult reports a created playlist back to the caller.
type PlaylistResult struct {
	PlaylistURL  string `json:"playlistUrl"`
	PlaylistID   string `json:"playlistId"`
	PlaylistName string `json:"playlistName"`
	TrackCount   int    `json:"trackCount"`
}

// Status reports per-slot login state for the session.
type Status struct {
	User1LoggedIn bool             `json:"user1LoggedIn"`
	User2LoggedIn bool             `json:"user2LoggedIn"`
	User1Profile  *session.Profile `json:"user1Profile"`
	User2Profile  *session.Profile `json:"user2Profile"`
}

func trackView(t compat.Track) TrackView {
	albumName := ""
	if t.Album != nil {
		albumName = t.Album.Name
	}
	return TrackView{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    strings.Join(t.Artists, ", "),
		Album:      albumName,
		ImageURL:   t.ImageURL,
		URL:        t.URL,
		PreviewURL: t.PreviewURL,
		URI:        t.URI,
		Popularity: t.Popularity,
	}
}

func artistView(a compat.Artist) ArtistView {
	return ArtistView{
		ID:         a.ID,
		Name:       a.Name,
		Genres:     strings.Join(a.Genres, ", "),
		ImageURL:   a.ImageURL,
		URL:        a.URL,
		URI:        a.URI,
		Popularity: a.Popularity,
	}
}

func albumView(a compat.CommonAlbum) AlbumView {
	return AlbumView{
		ID:         a.ID,
		Name:       a.Name,
		Artist:     a.Artist,
		Year:       a.Year,
		TrackCount: a.TrackCount,
		ImageURL:   a.ImageURL,
		URL:        a.URL,
	}
}
