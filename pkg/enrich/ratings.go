package enrich

import (
	"context"
	"errors"
	"time"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/store"
	"showtime-cards/pkg/worker"
)

// RatingsProvider looks up ratings for a title and optional release year.
type RatingsProvider interface {
	Lookup(ctx context.Context, title string, year int) (domain.Ratings, error)
}

// Stats summarises one enrichment pass.
type Stats struct {
	CacheHits   int
	Fetched     int
	Failed      int
	StoreErrors int
}

type lookupJob struct {
	index int
	title string
	year  int
}

// Merger attaches ratings to shows through a per-day read-through cache.
type Merger struct {
	provider RatingsProvider
	store    store.Store
	pool     *worker.Pool
}

// NewMerger creates a merger. A nil provider disables lookups: every show
// leaves with empty ratings, but cached snapshots are still applied.
func NewMerger(provider RatingsProvider, st store.Store, pool *worker.Pool) *Merger {
	return &Merger{
		provider: provider,
		store:    st,
		pool:     pool,
	}
}

// Enrich fills Ratings on every show for day (YYYY-MM-DD); new snapshots are
// stamped with at. Shows with a
// snapshot for day are served from the store without a network call.
// Misses are looked up concurrently; successful results are upserted one at
// a time on the calling goroutine. Lookup failures leave empty ratings.
func (m *Merger) Enrich(ctx context.Context, shows []domain.Show, day string, at time.Time) ([]domain.Show, Stats) {
	out := make([]domain.Show, len(shows))
	copy(out, shows)

	var stats Stats
	var misses []lookupJob
	for i := range out {
		out[i].Ratings = domain.Ratings{}

		snap, err := m.store.GetSnapshot(ctx, out[i].Slug, day)
		if err == nil {
			out[i].Ratings = snap.Ratings
			stats.CacheHits++
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			logger.WithField("slug", out[i].Slug).Warnf("Cache read failed, treating as miss: %v", err)
		}
		misses = append(misses, lookupJob{index: i, title: out[i].LookupTitle(), year: out[i].ReleaseYear()})
	}

	if m.provider == nil {
		if len(misses) > 0 {
			logger.Log.Infof("No ratings provider configured, %d shows left unrated", len(misses))
		}
		return out, stats
	}

	lookup := func(ctx context.Context, j lookupJob) (domain.Ratings, error) {
		return m.provider.Lookup(ctx, j.title, j.year)
	}

	// Runs on this goroutine, so store writes are sequential.
	handle := func(r worker.Result[lookupJob, domain.Ratings]) {
		show := &out[r.Job.index]
		if r.Err != nil {
			stats.Failed++
			logger.WithField("slug", show.Slug).Warnf("Ratings lookup failed: %v", r.Err)
			return
		}
		stats.Fetched++
		show.Ratings = r.Value

		snap := domain.Snapshot{Slug: show.Slug, Day: day, Ratings: r.Value, FetchedAt: at.UTC()}
		if err := m.store.PutSnapshot(ctx, snap); err != nil {
			stats.StoreErrors++
			logger.WithField("slug", show.Slug).Warnf("Failed to cache ratings: %v", err)
		}
	}

	worker.Run(ctx, m.pool, misses, lookup, handle)

	logger.Log.Infof("Ratings completed: %d cached, %d fetched, %d errors", stats.CacheHits, stats.Fetched, stats.Failed)
	return out, stats
}
