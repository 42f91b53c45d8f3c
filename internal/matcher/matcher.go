package matcher

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Topasm/MP3toSpotify/internal/services"
)

// Matcher resolves songs against a catalog by walking their fallback queries
// in order, pacing consecutive calls with a rate limiter.
type Matcher struct {
	catalog services.Searcher
	limiter *rate.Limiter
}

// New builds a Matcher that spaces successive catalog calls delay apart.
// A non-positive delay disables pacing.
func New(catalog services.Searcher, delay time.Duration) *Matcher {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Matcher{catalog: catalog, limiter: limiter}
}

// Match tries each query for song in order. A hit returns immediately, an
// empty result falls through to the next query, and a transport error aborts
// the chain. (nil, nil) means every query came back empty.
func (m *Matcher) Match(ctx context.Context, song services.Song) (*services.TrackMatch, error) {
	for _, q := range BuildQueries(song) {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		match, err := m.catalog.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		if match != nil {
			return match, nil
		}
	}
	return nil, nil
}
