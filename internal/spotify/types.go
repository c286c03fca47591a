package spotify

// Image is an image resource in one of the provider's offered sizes.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist represents a Spotify artist. Genre tags are only populated on
// full artist objects, not on the slim artists embedded in tracks.
type Artist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Genres       []string          `json:"genres"`
	Images       []Image           `json:"images"`
	Popularity   int               `json:"popularity"`
	URI          string            `json:"uri"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// Album represents the album metadata embedded in a track.
type Album struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	Images       []Image           `json:"images"`
	ReleaseDate  string            `json:"release_date"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// Track represents a Spotify track.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	Album        Album             `json:"album"`
	PreviewURL   string            `json:"preview_url"`
	Popularity   int               `json:"popularity"`
	URI          string            `json:"uri"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// Playlist is the subset of a created playlist the engine reports back.
type Playlist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// LargestImage returns the URL of the widest image, or "" when none exist.
func LargestImage(images []Image) string {
	best := ""
	bestWidth := -1
	for _, img := range images {
		if img.Width > bestWidth {
			best = img.URL
			bestWidth = img.Width
		}
	}
	return best
}
