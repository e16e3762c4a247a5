package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/store"
)

// DefaultWindow is how long a transition counts as fresh.
const DefaultWindow = 48 * time.Hour

// MinOpacity is the badge opacity at the end of the window.
const MinOpacity = 0.35

// Observation is what the tracker knows about one (kind, slug) pair.
type Observation struct {
	Hours  float64 // since first seen; 0 when never seen
	Fresh  bool    // first seen less than the window ago
	Window time.Duration
}

// Opacity fades linearly from 1 at first sight to MinOpacity at the end of
// the window. Stale or unseen observations return 0.
func (o Observation) Opacity() float64 {
	if !o.Fresh {
		return 0
	}
	window := o.Window.Hours()
	if window <= 0 {
		return 1
	}
	frac := o.Hours / window
	if frac > 1 {
		frac = 1
	}
	return 1 - frac*(1-MinOpacity)
}

// Tracker records the first time a predicate became true for a slug and
// reports how long ago that was.
type Tracker struct {
	store  store.Store
	window time.Duration
}

// NewTracker creates a tracker. window <= 0 uses DefaultWindow.
func NewTracker(st store.Store, window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{store: st, window: window}
}

// Observe persists now as first-seen the first time predicate is true and
// never moves it afterwards. Once a marker exists, the hours since it and
// its freshness are returned whatever predicate says. With no marker and a
// false predicate the result is {0, false}.
//
// now is truncated to milliseconds, the coarsest precision of the backing
// stores, so a marker read back after insertion compares equal.
func (t *Tracker) Observe(ctx context.Context, kind domain.MarkerKind, slug string, predicate bool, now time.Time) (Observation, error) {
	now = now.UTC().Truncate(time.Millisecond)

	m, err := t.store.GetMarker(ctx, kind, slug)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		if !predicate {
			return Observation{Window: t.window}, nil
		}
		m, err = t.store.InsertMarkerOnce(ctx, domain.Marker{Kind: kind, Slug: slug, FirstSeen: now})
		if err != nil {
			return Observation{}, fmt.Errorf("insert %s marker for %s: %w", kind, slug, err)
		}
		if m.FirstSeen.Sub(now).Abs() < time.Millisecond {
			// Our insert won; the store may have rounded the value.
			m.FirstSeen = now
		}
	default:
		return Observation{}, fmt.Errorf("read %s marker for %s: %w", kind, slug, err)
	}

	elapsed := now.Sub(m.FirstSeen)
	if elapsed < 0 {
		elapsed = 0
	}
	return Observation{
		Hours:  elapsed.Hours(),
		Fresh:  elapsed < t.window,
		Window: t.window,
	}, nil
}
