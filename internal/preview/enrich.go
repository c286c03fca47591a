package preview

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/brunovale/go-spotify-match/internal/compat"
)

// Defaults for the enrichment pool.
const (
	DefaultConcurrency = 4

	// DefaultInterval is the minimum spacing between lookup dispatches,
	// part of the contract to the secondary provider.
	DefaultInterval = 50 * time.Millisecond
)

// Searcher abstracts the Deezer client for testing.
type Searcher interface {
	FindPreview(ctx context.Context, title, artist string) (string, error)
}

// Enricher fills missing preview URLs on common-track lists. Lookups for
// distinct tracks run concurrently behind a rate limiter that enforces the
// minimum inter-dispatch interval.
type Enricher struct {
	searcher    Searcher
	limiter     *rate.Limiter
	concurrency int
	logger      *log.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithConcurrency sets the number of concurrent lookups.
func WithConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithInterval sets the minimum interval between lookup dispatches.
func WithInterval(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithLogger sets the enricher's logger.
func WithLogger(l *log.Logger) EnricherOption {
	return func(e *Enricher) { e.logger = l }
}

// NewEnricher creates an Enricher backed by the given searcher.
func NewEnricher(searcher Searcher, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		searcher:    searcher,
		limiter:     rate.NewLimiter(rate.Every(DefaultInterval), 1),
		concurrency: DefaultConcurrency,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a copy of tracks where entries lacking a preview URL have
// been backfilled from the secondary catalog when a lookup succeeded. The
// input is never mutated. Lookup failures are isolated per track and never
// surface; each missing preview gets exactly one lookup attempt.
func (e *Enricher) Enrich(ctx context.Context, tracks []compat.Track) []compat.Track {
	if tracks == nil {
		return nil
	}

	enriched := make([]compat.Track, len(tracks))
	copy(enriched, tracks)

	var pending []int
	for i, t := range enriched {
		if t.PreviewURL == "" && t.Name != "" && t.PrimaryArtist() != "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return enriched
	}

	workCh := make(chan int, len(pending))
	for _, i := range pending {
		workCh <- i
	}
	close(workCh)

	var wg sync.WaitGroup
	for w := 0; w < e.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if err := e.limiter.Wait(ctx); err != nil {
					return
				}

				track := enriched[i]
				previewURL, err := e.searcher.FindPreview(ctx, track.Name, track.PrimaryArtist())
				if err != nil {
					e.logger.Debug("preview lookup failed",
						"track", track.Name, "artist", track.PrimaryArtist(), "err", err)
					continue
				}
				if previewURL != "" {
					enriched[i].PreviewURL = previewURL
				}
			}
		}()
	}
	wg.Wait()

	return enriched
}
