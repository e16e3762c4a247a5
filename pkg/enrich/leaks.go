package enrich

import (
	"context"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/leak"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/worker"
)

// LeakMerger sets Lifecycle.IsLeaked. Nothing is cached: every run asks the
// index again for every show with an IMDb id.
type LeakMerger struct {
	checker leak.Checker
	pool    *worker.Pool
}

// NewLeakMerger creates a leak merger. A nil checker marks nothing as leaked.
func NewLeakMerger(checker leak.Checker, pool *worker.Pool) *LeakMerger {
	if checker == nil {
		checker = leak.Nop{}
	}
	return &LeakMerger{checker: checker, pool: pool}
}

// Check returns a copy of shows with IsLeaked filled. Errors count as not leaked.
func (l *LeakMerger) Check(ctx context.Context, shows []domain.Show) []domain.Show {
	out := make([]domain.Show, len(shows))
	copy(out, shows)

	// pos maps a job index back to its show.
	var ids []string
	var pos []int
	for i := range out {
		out[i].Lifecycle.IsLeaked = false
		if id := out[i].Ratings.IMDbID; id != "" {
			ids = append(ids, id)
			pos = append(pos, i)
		}
	}

	leaked := 0
	stats := worker.Run(ctx, l.pool, ids, l.checker.Leaked, func(r worker.Result[string, bool]) {
		show := &out[pos[r.Index]]
		if r.Err != nil {
			logger.WithField("slug", show.Slug).Debugf("Leak check failed: %v", r.Err)
			return
		}
		if r.Value {
			show.Lifecycle.IsLeaked = true
			leaked++
		}
	})

	logger.Log.Infof("Leak checks completed: %d successful, %d errors, %d leaked", stats.Succeeded, stats.Failed, leaked)
	return out
}
