package compat

import "sort"

// albumAggregate accumulates contributions to one album across both users.
type albumAggregate struct {
	album    Album
	slots    map[int]struct{}
	trackIDs map[string]struct{}
}

// CommonAlbums groups both users' tracks by album and promotes an album to
// "common" only when both users contributed at least one track to it.
// Results are sorted by distinct contributing track count, descending.
func CommonAlbums(user1Tracks, user2Tracks []Track) []CommonAlbum {
	if user1Tracks == nil || user2Tracks == nil {
		return nil
	}

	aggregates := make(map[string]*albumAggregate)
	var order []string // first-seen album order, for deterministic output

	collect := func(tracks []Track, slot int) {
		for _, t := range tracks {
			if t.Album == nil || t.Album.ID == "" {
				continue
			}
			agg, ok := aggregates[t.Album.ID]
			if !ok {
				agg = &albumAggregate{
					album:    *t.Album,
					slots:    make(map[int]struct{}),
					trackIDs: make(map[string]struct{}),
				}
				aggregates[t.Album.ID] = agg
				order = append(order, t.Album.ID)
			}
			agg.slots[slot] = struct{}{}
			agg.trackIDs[t.ID] = struct{}{}
		}
	}
	collect(user1Tracks, 1)
	collect(user2Tracks, 2)

	common := make([]CommonAlbum, 0)
	for _, id := range order {
		agg := aggregates[id]
		if len(agg.slots) < 2 {
			continue
		}
		common = append(common, CommonAlbum{
			Album:      agg.album,
			TrackCount: len(agg.trackIDs),
		})
	}

	sort.SliceStable(common, func(i, j int) bool {
		return common[i].TrackCount > common[j].TrackCount
	})
	return common
}
