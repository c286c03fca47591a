package compat

import "math"

// List-length caps applied before computing overlap ratios.
const (
	trackListCap  = 200
	artistListCap = 100
)

// genreTarget is the shared-genre count at which the genre factor saturates.
const genreTarget = 5

// missingPopularity substitutes for an absent (zero) popularity value.
const missingPopularity = 50

// Weights holds the empirically tuned score constants. They are not derived
// from a model; keep them exact to stay bit-compatible with prior results.
type Weights struct {
	Tracks     float64
	Artists    float64
	Genres     float64
	Rank       float64
	Popularity float64

	// Boost scales the rounded composite before the final clamp to 100.
	// A tuning parameter, not a modeled quantity.
	Boost float64
}

// DefaultWeights returns the production score weights.
func DefaultWeights() Weights {
	return Weights{
		Tracks:     0.45,
		Artists:    0.25,
		Genres:     0.10,
		Rank:       0.10,
		Popularity: 0.10,
		Boost:      1.3,
	}
}

// ScoreInput carries the two users' fetched lists and the collections
// derived from them. All eight fields are required; a nil field yields a
// score of zero as a defensive guard.
type ScoreInput struct {
	User1Tracks  []Track
	User2Tracks  []Track
	User1Artists []Artist
	User2Artists []Artist

	CommonTracks  []Track
	CommonArtists []Artist
	CommonAlbums  []CommonAlbum
	TopGenres     []GenreCount
}

func (in ScoreInput) complete() bool {
	return in.User1Tracks != nil && in.User2Tracks != nil &&
		in.User1Artists != nil && in.User2Artists != nil &&
		in.CommonTracks != nil && in.CommonArtists != nil &&
		in.CommonAlbums != nil && in.TopGenres != nil
}

// Score computes the compatibility score in [0, 100] from five independent
// factors, each normalized to [0, 1]:
//
//   - track overlap against the smaller capped track list
//   - artist overlap against the smaller capped artist list
//   - shared genre count against genreTarget
//   - average closeness-to-top rank of common tracks in both lists
//   - average provider popularity of common tracks
//
// The weighted sum is scaled to 100, rounded, boosted and clamped.
func Score(in ScoreInput, w Weights) int {
	if !in.complete() {
		return 0
	}

	user1TrackCount := min(len(in.User1Tracks), trackListCap)
	user2TrackCount := min(len(in.User2Tracks), trackListCap)
	user1ArtistCount := min(len(in.User1Artists), artistListCap)
	user2ArtistCount := min(len(in.User2Artists), artistListCap)

	var trackOverlap, artistOverlap float64
	if n := min(user1TrackCount, user2TrackCount); n > 0 {
		trackOverlap = float64(len(in.CommonTracks)) / float64(n)
	}
	if n := min(user1ArtistCount, user2ArtistCount); n > 0 {
		artistOverlap = float64(len(in.CommonArtists)) / float64(n)
	}

	genreOverlap := math.Min(float64(len(in.TopGenres))/genreTarget, 1)

	var rankScore float64
	if len(in.CommonTracks) > 0 {
		maxRank := max(user1TrackCount, user2TrackCount)
		for _, track := range in.CommonTracks {
			rank1 := rankOf(in.User1Tracks, track.ID)
			rank2 := rankOf(in.User2Tracks, track.ID)
			score1 := 1 - float64(rank1)/float64(maxRank)
			score2 := 1 - float64(rank2)/float64(maxRank)
			rankScore += (score1 + score2) / 2
		}
		rankScore /= float64(len(in.CommonTracks))
	}

	var popularityScore float64
	if len(in.CommonTracks) > 0 {
		total := 0
		for _, track := range in.CommonTracks {
			p := track.Popularity
			if p == 0 {
				p = missingPopularity
			}
			total += p
		}
		popularityScore = float64(total) / float64(len(in.CommonTracks)) / 100
	}

	rawScore := trackOverlap*w.Tracks +
		artistOverlap*w.Artists +
		genreOverlap*w.Genres +
		rankScore*w.Rank +
		popularityScore*w.Popularity

	final := math.Round(rawScore * 100)
	final = math.Min(100, final*w.Boost)
	if final < 0 {
		final = 0
	}
	return int(math.Round(final))
}

// rankOf returns the 1-based position of the track in the list, or 0 when
// absent. Common tracks are present in both lists by construction.
func rankOf(tracks []Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i + 1
		}
	}
	return 0
}
