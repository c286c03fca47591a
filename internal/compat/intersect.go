package compat

// IntersectTracks returns the tracks present in both lists, keyed by
// provider ID. Each ID contributes at most one representative, taken from
// the second list, in the order the second list first mentions it.
// Duplicate IDs within one input are collapsed before comparison.
func IntersectTracks(first, second []Track) []Track {
	return intersect(first, second, func(t Track) string { return t.ID })
}

// IntersectArtists is IntersectTracks for artist lists.
func IntersectArtists(first, second []Artist) []Artist {
	return intersect(first, second, func(a Artist) string { return a.ID })
}

func intersect[T any](first, second []T, id func(T) string) []T {
	if first == nil || second == nil {
		return nil
	}

	inFirst := make(map[string]struct{}, len(first))
	for _, item := range first {
		if key := id(item); key != "" {
			inFirst[key] = struct{}{}
		}
	}

	common := make([]T, 0)
	seen := make(map[string]struct{})
	for _, item := range second {
		key := id(item)
		if key == "" {
			continue
		}
		if _, ok := inFirst[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		common = append(common, item)
	}
	return common
}
