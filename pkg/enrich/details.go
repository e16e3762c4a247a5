package enrich

import (
	"context"
	"strings"

	"showtime-cards/pkg/catalog"
	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/worker"
)

// DetailFetcher returns the per-show detail document.
type DetailFetcher interface {
	ShowDetail(ctx context.Context, slug string) (*catalog.Detail, error)
}

// DetailMerger fills synopsis, directors and actors from the detail endpoint.
type DetailMerger struct {
	fetcher DetailFetcher
	pool    *worker.Pool
}

func NewDetailMerger(fetcher DetailFetcher, pool *worker.Pool) *DetailMerger {
	return &DetailMerger{fetcher: fetcher, pool: pool}
}

// Fill returns a copy of shows with detail fields merged in. Failed fetches
// leave the show as it was.
func (d *DetailMerger) Fill(ctx context.Context, shows []domain.Show) []domain.Show {
	out := make([]domain.Show, len(shows))
	copy(out, shows)

	slugs := make([]string, len(out))
	for i := range out {
		slugs[i] = out[i].Slug
	}

	fetch := func(ctx context.Context, slug string) (*catalog.Detail, error) {
		return d.fetcher.ShowDetail(ctx, slug)
	}

	stats := worker.Run(ctx, d.pool, slugs, fetch, func(r worker.Result[string, *catalog.Detail]) {
		if r.Err != nil {
			logger.WithField("slug", r.Job).Warnf("Detail fetch failed: %v", r.Err)
			return
		}
		mergeDetail(&out[r.Index], r.Value)
	})

	logger.Log.Infof("Details completed: %d successful, %d errors", stats.Succeeded, stats.Failed)
	return out
}

func mergeDetail(s *domain.Show, d *catalog.Detail) {
	if d == nil {
		return
	}
	if strings.TrimSpace(d.Synopsis) != "" {
		s.Synopsis = d.Synopsis
	}
	if d.Directors != "" {
		s.Directors = d.Directors
	}
	if d.Actors != "" {
		s.Actors = d.Actors
	}
	if len(s.Genres) == 0 && len(d.Genres) > 0 {
		s.Genres = append([]string(nil), d.Genres...)
	}
}
