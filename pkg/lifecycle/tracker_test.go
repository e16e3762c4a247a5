package lifecycle

import (
	"context"
	"math"
	"testing"
	"time"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/store"
)

type clock struct{ t time.Time }

func newTestTracker(st store.Store, start time.Time) (*Tracker, *clock) {
	return NewTracker(st, 48*time.Hour), &clock{t: start}
}

func TestObserve_FirstCallIsFreshAtZero(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr, c := newTestTracker(st, start)

	obs, err := tr.Observe(ctx, domain.MarkerListed, "a", true, c.t)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if obs.Hours != 0 || !obs.Fresh {
		t.Errorf("expected (0, true), got (%v, %v)", obs.Hours, obs.Fresh)
	}

	m, err := st.GetMarker(ctx, domain.MarkerListed, "a")
	if err != nil || !m.FirstSeen.Equal(start) {
		t.Errorf("expected marker at %v, got %+v, %v", start, m, err)
	}
}

// msStore keeps markers at millisecond precision, like the Mongo backend.
type msStore struct{ *store.MemoryStore }

func (s msStore) InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	m.FirstSeen = m.FirstSeen.Round(time.Millisecond)
	return s.MemoryStore.InsertMarkerOnce(ctx, m)
}

func TestObserve_FirstCallIsZeroOnCoarseStore(t *testing.T) {
	ctx := context.Background()
	st := msStore{store.NewMemoryStore()}
	tr, c := newTestTracker(st, time.Date(2024, 3, 1, 10, 0, 0, 987654321, time.UTC))

	obs, err := tr.Observe(ctx, domain.MarkerListed, "a", true, c.t)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if obs.Hours != 0 || !obs.Fresh {
		t.Errorf("expected exactly (0, true), got (%v, %v)", obs.Hours, obs.Fresh)
	}
}

func TestObserve_AfterWindowIsStaleAndFirstSeenUnchanged(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr, c := newTestTracker(st, start)

	tr.Observe(ctx, domain.MarkerBookable, "a", true, c.t)

	c.t = start.Add(12 * time.Hour)
	obs, _ := tr.Observe(ctx, domain.MarkerBookable, "a", true, c.t)
	if obs.Hours != 12 || !obs.Fresh {
		t.Errorf("expected (12, true), got (%v, %v)", obs.Hours, obs.Fresh)
	}

	c.t = start.Add(50 * time.Hour)
	obs, err := tr.Observe(ctx, domain.MarkerBookable, "a", true, c.t)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if obs.Hours != 50 || obs.Fresh {
		t.Errorf("expected (50, false), got (%v, %v)", obs.Hours, obs.Fresh)
	}

	m, _ := st.GetMarker(ctx, domain.MarkerBookable, "a")
	if !m.FirstSeen.Equal(start) {
		t.Errorf("first-seen moved to %v", m.FirstSeen)
	}
}

func TestObserve_PredicateFalse(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr, c := newTestTracker(st, start)

	obs, err := tr.Observe(ctx, domain.MarkerSoon, "a", false, c.t)
	if err != nil || obs.Hours != 0 || obs.Fresh {
		t.Fatalf("expected (0, false), got %+v, %v", obs, err)
	}
	if _, err := st.GetMarker(ctx, domain.MarkerSoon, "a"); err == nil {
		t.Error("false predicate must not write a marker")
	}

	// An existing marker keeps reporting even when the predicate turns false.
	tr.Observe(ctx, domain.MarkerSoon, "a", true, c.t)
	c.t = start.Add(3 * time.Hour)
	obs, _ = tr.Observe(ctx, domain.MarkerSoon, "a", false, c.t)
	if obs.Hours != 3 || !obs.Fresh {
		t.Errorf("expected (3, true), got (%v, %v)", obs.Hours, obs.Fresh)
	}
}

func TestObserve_LegacyMarkerReadAsUTC(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	legacy, _ := domain.ParseTimestamp("2024-03-01 10:00:00")
	st.InsertMarkerOnce(ctx, domain.Marker{Kind: domain.MarkerListed, Slug: "a", FirstSeen: legacy})

	tr, c := newTestTracker(st, time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)))
	obs, _ := tr.Observe(ctx, domain.MarkerListed, "a", true, c.t)
	// 12:00 CET is 11:00 UTC.
	if obs.Hours != 1 {
		t.Errorf("expected 1 hour, got %v", obs.Hours)
	}
}

func TestOpacity(t *testing.T) {
	w := 48 * time.Hour
	tests := []struct {
		obs  Observation
		want float64
	}{
		{Observation{Hours: 0, Fresh: true, Window: w}, 1},
		{Observation{Hours: 24, Fresh: true, Window: w}, 0.675},
		{Observation{Hours: 48, Fresh: false, Window: w}, 0},
		{Observation{Hours: 0, Fresh: false, Window: w}, 0},
	}
	for _, tt := range tests {
		if got := tt.obs.Opacity(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Opacity(%+v) = %v, want %v", tt.obs, got, tt.want)
		}
	}
}
