// Package match orchestrates a full compatibility calculation: token
// resolution for both user slots, concurrent top-item retrieval, the pure
// analysis, preview enrichment and result caching.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/brunovale/go-spotify-match/internal/compat"
	"github.com/brunovale/go-spotify-match/internal/errs"
	"github.com/brunovale/go-spotify-match/internal/preview"
	"github.com/brunovale/go-spotify-match/internal/resultcache"
	"github.com/brunovale/go-spotify-match/internal/session"
	"github.com/brunovale/go-spotify-match/internal/spotify"
)

// Retrieval caps for the two top-item kinds.
const (
	trackLimit  = 200
	artistLimit = 100
)

// playlistTrackLimit bounds how many common tracks go into a generated
// playlist (provider limit per add call).
const playlistTrackLimit = 100

// TokenEnsurer resolves a valid access token for a user slot.
type TokenEnsurer interface {
	EnsureValidToken(ctx context.Context, sessionID string, slot session.Slot) (string, error)
}

// Fetcher retrieves a user's top items from the primary provider.
type Fetcher interface {
	FetchTopTracks(ctx context.Context, token string, timeRange spotify.TimeRange, limit int) ([]spotify.Track, error)
	FetchTopArtists(ctx context.Context, token string, timeRange spotify.TimeRange, limit int) ([]spotify.Artist, error)
}

// PlaylistAPI creates playlists on the primary provider.
type PlaylistAPI interface {
	CreatePlaylist(ctx context.Context, token, userID, name, description string, public bool) (*spotify.Playlist, error)
	AddTracks(ctx context.Context, token, playlistID string, uris []string) error
	UploadCover(ctx context.Context, token, playlistID, jpegBase64 string) error
}

// Enricher backfills missing preview URLs on the common-track list.
type Enricher interface {
	Enrich(ctx context.Context, tracks []compat.Track) []compat.Track
}

// Config wires a Service's collaborators.
type Config struct {
	Tokens   TokenEnsurer
	Fetcher  Fetcher
	Playlist PlaylistAPI
	Sessions *session.Store
	Enricher Enricher
	Results  resultcache.Store[*Result]
	Cover    CoverSource
	Weights  compat.Weights
	Logger   *log.Logger
}

// Service is the calculation entry point consumed by the HTTP layer.
type Service struct {
	tokens   TokenEnsurer
	fetcher  Fetcher
	playlist PlaylistAPI
	sessions *session.Store
	enricher Enricher
	results  resultcache.Store[*Result]
	cover    CoverSource
	weights  compat.Weights
	logger   *log.Logger
}

// NewService creates the match service.
func NewService(cfg Config) *Service {
	s := &Service{
		tokens:   cfg.Tokens,
		fetcher:  cfg.Fetcher,
		playlist: cfg.Playlist,
		sessions: cfg.Sessions,
		enricher: cfg.Enricher,
		results:  cfg.Results,
		cover:    cfg.Cover,
		weights:  cfg.Weights,
		logger:   cfg.Logger,
	}
	if s.weights == (compat.Weights{}) {
		s.weights = compat.DefaultWeights()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.enricher == nil {
		s.enricher = preview.NewEnricher(preview.NewClient())
	}
	if s.cover == nil {
		s.cover = NewRemoteCover()
	}
	return s
}

// Calculate runs a full compatibility analysis for the session's two user
// slots over the given time range, caches the result under the session ID
// and returns it. On any failure the session's cached result is discarded;
// an authentication failure additionally purges both slots' credentials.
func (s *Service) Calculate(ctx context.Context, sessionID string, timeRange spotify.TimeRange) (*Result, error) {
	token1, err := s.tokens.EnsureValidToken(ctx, sessionID, session.SlotOne)
	if err != nil {
		return nil, s.fail(sessionID, err)
	}
	token2, err := s.tokens.EnsureValidToken(ctx, sessionID, session.SlotTwo)
	if err != nil {
		return nil, s.fail(sessionID, err)
	}

	profile1, ok1 := s.sessions.Profile(sessionID, session.SlotOne)
	profile2, ok2 := s.sessions.Profile(sessionID, session.SlotTwo)
	if !ok1 || !ok2 {
		return nil, s.fail(sessionID, fmt.Errorf("%w: both users must be logged in with valid profiles", errs.ErrAuthRequired))
	}

	s.logger.Info("calculating match",
		"user1", profile1.DisplayName, "user2", profile2.DisplayName, "time_range", timeRange)

	lists, err := s.fetchTopLists(ctx, token1, token2, timeRange)
	if err != nil {
		return nil, s.fail(sessionID, err)
	}

	user1Tracks := spotify.CompatTracks(lists.user1Tracks)
	user2Tracks := spotify.CompatTracks(lists.user2Tracks)
	user1Artists := spotify.CompatArtists(lists.user1Artists)
	user2Artists := spotify.CompatArtists(lists.user2Artists)

	commonTracks := compat.IntersectTracks(user1Tracks, user2Tracks)
	commonArtists := compat.IntersectArtists(user1Artists, user2Artists)
	commonAlbums := compat.CommonAlbums(user1Tracks, user2Tracks)
	topGenres := compat.TopGenres(commonArtists, compat.DefaultGenreLimit)

	commonTracks = s.enricher.Enrich(ctx, commonTracks)

	score := 0
	if profile1.ID == profile2.ID {
		// Same account on both slots: perfect match without the formula.
		score = 100
	} else {
		score = compat.Score(compat.ScoreInput{
			User1Tracks:   user1Tracks,
			User2Tracks:   user2Tracks,
			User1Artists:  user1Artists,
			User2Artists:  user2Artists,
			CommonTracks:  commonTracks,
			CommonArtists: commonArtists,
			CommonAlbums:  commonAlbums,
			TopGenres:     topGenres,
		}, s.weights)
	}

	result := &Result{
		CommonTracks:       make([]TrackView, 0, len(commonTracks)),
		CommonArtists:      make([]ArtistView, 0, len(commonArtists)),
		CommonAlbums:       make([]AlbumView, 0, len(commonAlbums)),
		TopGenres:          topGenres,
		CompatibilityScore: score,
		User1Profile:       profile1,
		User2Profile:       profile2,
		TimeRange:          string(timeRange),
	}
	for _, t := range commonTracks {
		result.CommonTracks = append(result.CommonTracks, trackView(t))
	}
	for _, a := range commonArtists {
		result.CommonArtists = append(result.CommonArtists, artistView(a))
	}
	for _, a := range commonAlbums {
		result.CommonAlbums = append(result.CommonAlbums, albumView(a))
	}

	s.results.Put(sessionID, result)
	s.logger.Info("match calculated",
		"score", score,
		"common_tracks", len(result.CommonTracks),
		"common_artists", len(result.CommonArtists),
		"common_albums", len(result.CommonAlbums))
	return result, nil
}

// topLists collects the four concurrent fetch results.
type topLists struct {
	user1Tracks  []spotify.Track
	user2Tracks  []spotify.Track
	user1Artists []spotify.Artist
	user2Artists []spotify.Artist
}

// fetchTopLists issues the four top-item fetches concurrently. The first
// failure wins; sibling calls run to completion since they are cheap and
// idempotent, so no cancellation is propagated.
func (s *Service) fetchTopLists(ctx context.Context, token1, token2 string, timeRange spotify.TimeRange) (*topLists, error) {
	var (
		lists     topLists
		fetchErrs [4]error
		wg        sync.WaitGroup
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		lists.user1Tracks, fetchErrs[0] = s.fetcher.FetchTopTracks(ctx, token1, timeRange, trackLimit)
	}()
	go func() {
		defer wg.Done()
		lists.user1Artists, fetchErrs[1] = s.fetcher.FetchTopArtists(ctx, token1, timeRange, artistLimit)
	}()
	go func() {
		defer wg.Done()
		lists.user2Tracks, fetchErrs[2] = s.fetcher.FetchTopTracks(ctx, token2, timeRange, trackLimit)
	}()
	go func() {
		defer wg.Done()
		lists.user2Artists, fetchErrs[3] = s.fetcher.FetchTopArtists(ctx, token2, timeRange, artistLimit)
	}()
	wg.Wait()

	for _, err := range fetchErrs {
		if err != nil {
			return nil, err
		}
	}
	return &lists, nil
}

// fail discards any partially cached result for the session and, on
// authentication failures, purges both slots so the caller re-logs in with
// a clean slate. Returns the error unchanged for propagation.
func (s *Service) fail(sessionID string, err error) error {
	s.results.Delete(sessionID)
	if errors.Is(err, errs.ErrAuthRequired) {
		s.sessions.ClearSlot(sessionID, session.SlotOne)
		s.sessions.ClearSlot(sessionID, session.SlotTwo)
	}
	return err
}

// CreatePlaylist materializes the session's cached common tracks into a
// playlist on user one's account. Requires a prior successful Calculate.
func (s *Service) CreatePlaylist(ctx context.Context, sessionID string) (*PlaylistResult, error) {
	cached, ok := s.results.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: no analysis cached for session, recalculate first", errs.ErrMissingInput)
	}

	uris := make([]string, 0, len(cached.CommonTracks))
	for _, t := range cached.CommonTracks {
		if t.URI != "" {
			uris = append(uris, t.URI)
		}
	}
	if len(uris) == 0 {
		return nil, fmt.Errorf("%w: no common tracks to add", errs.ErrMissingInput)
	}
	if len(uris) > playlistTrackLimit {
		uris = uris[:playlistTrackLimit]
	}

	token, err := s.tokens.EnsureValidToken(ctx, sessionID, session.SlotOne)
	if err != nil {
		return nil, err
	}

	profile1, ok1 := s.sessions.Profile(sessionID, session.SlotOne)
	profile2, ok2 := s.sessions.Profile(sessionID, session.SlotTwo)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: profiles missing for playlist creation", errs.ErrAuthRequired)
	}

	name := fmt.Sprintf("Match %s & %s (%d)", profile1.DisplayName, profile2.DisplayName, len(uris))
	description := fmt.Sprintf("Generated by Spotify Match with %d common track(s) (%s).", len(uris), cached.TimeRange)

	playlist, err := s.playlist.CreatePlaylist(ctx, token, profile1.ID, name, description, true)
	if err != nil {
		return nil, err
	}
	if err := s.playlist.AddTracks(ctx, token, playlist.ID, uris); err != nil {
		return nil, err
	}

	s.uploadCover(ctx, token, playlist.ID)

	s.logger.Info("playlist created", "playlist", playlist.ID, "tracks", len(uris))
	return &PlaylistResult{
		PlaylistURL:  playlist.ExternalURLs["spotify"],
		PlaylistID:   playlist.ID,
		PlaylistName: playlist.Name,
		TrackCount:   len(uris),
	}, nil
}

// uploadCover applies the standard artwork to the playlist. Best effort:
// failures are logged and never surface to the caller.
func (s *Service) uploadCover(ctx context.Context, token, playlistID string) {
	image, err := s.cover.JPEGBase64(ctx)
	if err != nil {
		s.logger.Warn("cover image fetch failed", "err", err)
		return
	}
	if err := s.playlist.UploadCover(ctx, token, playlistID, image); err != nil {
		s.logger.Warn("cover image upload failed", "playlist", playlistID, "err", err)
	}
}

// AuthStatus reports which slots of the session are logged in.
func (s *Service) AuthStatus(sessionID string) Status {
	var status Status

	if _, ok := s.sessions.Credential(sessionID, session.SlotOne); ok {
		if p, ok := s.sessions.Profile(sessionID, session.SlotOne); ok {
			status.User1LoggedIn = true
			status.User1Profile = p
		}
	}
	if _, ok := s.sessions.Credential(sessionID, session.SlotTwo); ok {
		if p, ok := s.sessions.Profile(sessionID, session.SlotTwo); ok {
			status.User2LoggedIn = true
			status.User2Profile = p
		}
	}
	return status
}
