package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"showtime-cards/pkg/catalog"
	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/enrich"
	"showtime-cards/pkg/filter"
	"showtime-cards/pkg/lifecycle"
	"showtime-cards/pkg/logger"
)

// CatalogSource fetches the full catalog for a date.
type CatalogSource interface {
	FetchShows(ctx context.Context, date string) ([]domain.Show, error)
}

// ZoneSource fetches the region-scoped listing.
type ZoneSource interface {
	ZoneShows(ctx context.Context, zone, date string) ([]catalog.ZoneShow, error)
}

// DetailEnricher fills per-show detail fields.
type DetailEnricher interface {
	Fill(ctx context.Context, shows []domain.Show) []domain.Show
}

// RatingsEnricher attaches ratings, using the store as a per-day cache.
type RatingsEnricher interface {
	Enrich(ctx context.Context, shows []domain.Show, day string, at time.Time) ([]domain.Show, enrich.Stats)
}

// LeakEnricher sets the leak flag.
type LeakEnricher interface {
	Check(ctx context.Context, shows []domain.Show) []domain.Show
}

// MarkerTracker reports first-seen information for lifecycle transitions.
type MarkerTracker interface {
	Observe(ctx context.Context, kind domain.MarkerKind, slug string, predicate bool, now time.Time) (lifecycle.Observation, error)
}

// Pipeline runs the stages in order:
// Catalog → Zone scope → [Details] → Ratings → [Leaks] → Lifecycle → Badge.
// Details and Leaks are optional.
type Pipeline struct {
	Catalog  CatalogSource
	Zone     ZoneSource
	ZoneName string
	Exclude  map[string]bool // slugs dropped after scoping
	Details  DetailEnricher
	Ratings  RatingsEnricher
	Leaks    LeakEnricher
	Tracker  MarkerTracker
	Location *time.Location
	Now      func() time.Time
}

// Result is the product of one run, ready to be written for the presenter.
type Result struct {
	RunID       string        `json:"run_id"`
	Date        string        `json:"date"`
	Zone        string        `json:"zone"`
	GeneratedAt time.Time     `json:"generated_at"`
	Shows       []domain.Show `json:"shows"`
	Ratings     enrich.Stats  `json:"-"`
}

// Run executes one pass. Catalog and zone failures are returned as errors;
// everything after scoping degrades per show. A cancelled ctx fails the run
// before any marker is written, so no partial result is produced.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.Catalog == nil || p.Zone == nil || p.Ratings == nil || p.Tracker == nil {
		return nil, fmt.Errorf("pipeline is missing a required stage")
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	started := now()
	today := started.In(loc).Format("2006-01-02")
	result := &Result{
		RunID:       uuid.NewString(),
		Date:        today,
		Zone:        p.ZoneName,
		GeneratedAt: started.UTC(),
	}
	log := logger.WithField("run_id", result.RunID)

	log.Infof("Fetching catalog for %s", today)
	shows, err := p.Catalog.FetchShows(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	log.Infof("Scoping %d shows to zone %s", len(shows), p.ZoneName)
	zone, err := p.Zone.ZoneShows(ctx, p.ZoneName, today)
	if err != nil {
		return nil, fmt.Errorf("fetch zone listing: %w", err)
	}
	var extra []filter.Filter
	if len(p.Exclude) > 0 {
		extra = append(extra, filter.NewExcludeFilter(p.Exclude))
	}
	shows, err = ApplyZone(ctx, shows, zone, extra...)
	if err != nil {
		return nil, fmt.Errorf("scope to zone: %w", err)
	}
	log.Infof("%d shows in zone %s", len(shows), p.ZoneName)

	if p.Details != nil {
		shows = p.Details.Fill(ctx, shows)
	}

	shows, result.Ratings = p.Ratings.Enrich(ctx, shows, today, started)

	if p.Leaks != nil {
		shows = p.Leaks.Check(ctx, shows)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted: %w", err)
	}

	p.markLifecycle(ctx, shows, today, started)

	domain.SortByRating(shows)
	result.Shows = shows

	log.Infof("Run completed: %d shows (%d cached, %d fetched, %d errors)",
		len(shows), result.Ratings.CacheHits, result.Ratings.Fetched, result.Ratings.Failed)
	return result, nil
}

// markLifecycle records markers and sets the lifecycle flags and badge.
// Tracker errors leave the affected flags unset.
func (p *Pipeline) markLifecycle(ctx context.Context, shows []domain.Show, today string, now time.Time) {
	for i := range shows {
		s := &shows[i]
		log := logger.WithField("slug", s.Slug)

		if obs, err := p.Tracker.Observe(ctx, domain.MarkerListed, s.Slug, true, now); err != nil {
			log.Warnf("Listed marker failed: %v", err)
		} else {
			s.Lifecycle.IsNew = obs.Fresh
			s.Lifecycle.HoursSinceNew = obs.Hours
			s.Lifecycle.NewOpacity = obs.Opacity()
		}

		if obs, err := p.Tracker.Observe(ctx, domain.MarkerBookable, s.Slug, s.Bookable, now); err != nil {
			log.Warnf("Bookable marker failed: %v", err)
		} else {
			s.Lifecycle.NewlyBookable = obs.Fresh
			s.Lifecycle.HoursSinceBookable = obs.Hours
		}

		if obs, err := p.Tracker.Observe(ctx, domain.MarkerSoon, s.Slug, s.ComingSoon, now); err != nil {
			log.Warnf("Soon marker failed: %v", err)
		} else {
			s.Lifecycle.NewlyAnnounced = obs.Fresh
			s.Lifecycle.HoursSinceAnnounced = obs.Hours
		}

		s.Lifecycle.Badge = domain.Badge(s, today)
	}
}
