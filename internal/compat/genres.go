package compat

import (
	"math"
	"sort"
	"strings"
)

// DefaultGenreLimit is the number of genre entries kept when the caller
// passes a non-positive limit.
const DefaultGenreLimit = 10

// TopGenres tallies genre tags over the given artist list, normally the
// common-artist set. Tags are lower-cased and trimmed before counting. Each
// entry's Count is the rounded percentage of artists carrying the tag;
// entries rounding to zero are dropped. Output is sorted by raw tag count,
// descending, truncated to limit.
func TopGenres(artists []Artist, limit int) []GenreCount {
	if len(artists) == 0 {
		return []GenreCount{}
	}
	if limit <= 0 {
		limit = DefaultGenreLimit
	}

	counts := make(map[string]int)
	var order []string // first-seen order keeps ties deterministic
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			normalized := strings.ToLower(strings.TrimSpace(genre))
			if normalized == "" {
				continue
			}
			if _, ok := counts[normalized]; !ok {
				order = append(order, normalized)
			}
			counts[normalized]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	result := make([]GenreCount, 0, len(order))
	for _, genre := range order {
		pct := int(math.Round(float64(counts[genre]) / float64(len(artists)) * 100))
		if pct == 0 {
			continue
		}
		result = append(result, GenreCount{Genre: genre, Count: pct})
	}
	return result
}
