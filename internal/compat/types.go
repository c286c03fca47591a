// Package compat implements the compatibility analysis between two users'
// top-item lists: identity intersection, album co-occurrence, genre tallies
// and the weighted compatibility score.
//
// Everything in this package is pure: functions never touch the network and
// never mutate their inputs.
package compat

// Album is the album metadata carried by a track.
type Album struct {
	ID       string
	Name     string
	Artist   string // joined artist names
	ImageURL string
	URL      string
	Year     string
}

// Track is a provider top track reduced to the fields the analysis needs.
// Identity is the provider-issued ID; two tracks are the same iff their IDs
// match.
type Track struct {
	ID         string
	Name       string
	Artists    []string // names, primary artist first
	Album      *Album   // nil when the provider omitted album metadata
	ImageURL   string
	URL        string
	PreviewURL string
	URI        string
	Popularity int
}

// PrimaryArtist returns the first artist name, or "" when unknown.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Artist is a provider top artist reduced to the fields the analysis needs.
type Artist struct {
	ID         string
	Name       string
	Genres     []string
	ImageURL   string
	URL        string
	URI        string
	Popularity int
}

// CommonAlbum is an album both users contributed tracks to.
type CommonAlbum struct {
	Album
	// TrackCount is the number of distinct tracks from either user that
	// belong to the album, not an occurrence count.
	TrackCount int
}

// GenreCount is one entry of the shared genre profile. Count is the rounded
// percentage of common artists carrying the tag; one artist can contribute
// to several genres, so these do not sum to 100.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}
