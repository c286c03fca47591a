package spotify

import (
	"strings"

	"github.com/brunovale/go-spotify-match/internal/compat"
)

// CompatTracks converts provider tracks into the analyzer's track type.
func CompatTracks(tracks []Track) []compat.Track {
	if tracks == nil {
		return nil
	}
	out := make([]compat.Track, len(tracks))
	for i, t := range tracks {
		out[i] = compatTrack(t)
	}
	return out
}

// CompatArtists converts provider artists into the analyzer's artist type.
func CompatArtists(artists []Artist) []compat.Artist {
	if artists == nil {
		return nil
	}
	out := make([]compat.Artist, len(artists))
	for i, a := range artists {
		out[i] = compat.Artist{
			ID:         a.ID,
			Name:       a.Name,
			Genres:     a.Genres,
			ImageURL:   LargestImage(a.Images),
			URL:        a.ExternalURLs["spotify"],
			URI:        a.URI,
			Popularity: a.Popularity,
		}
	}
	return out
}

func compatTrack(t Track) compat.Track {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}

	var album *compat.Album
	if t.Album.ID != "" {
		album = &compat.Album{
			ID:       t.Album.ID,
			Name:     t.Album.Name,
			Artist:   joinArtistNames(t.Album.Artists),
			ImageURL: LargestImage(t.Album.Images),
			URL:      t.Album.ExternalURLs["spotify"],
			Year:     releaseYear(t.Album.ReleaseDate),
		}
	}

	return compat.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    names,
		Album:      album,
		ImageURL:   LargestImage(t.Album.Images),
		URL:        t.ExternalURLs["spotify"],
		PreviewURL: t.PreviewURL,
		URI:        t.URI,
		Popularity: t.Popularity,
	}
}

func joinArtistNames(artists []Artist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// releaseYear extracts the year from a release date, which the provider
// reports with day, month or year precision.
func releaseYear(releaseDate string) string {
	year, _, _ := strings.Cut(releaseDate, "-")
	return year
}
