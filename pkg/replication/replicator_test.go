package replication

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/store"
)

func TestNewReplicator_RequiresStores(t *testing.T) {
	if _, err := NewReplicator(Config{Destination: store.NewMemoryStore()}); err == nil {
		t.Error("expected error without source")
	}
	if _, err := NewReplicator(Config{Source: store.NewMemoryStore()}); err == nil {
		t.Error("expected error without destination")
	}
}

func TestReplicate(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStore()
	dst := store.NewMemoryStore()

	for i := 0; i < 250; i++ {
		src.PutSnapshot(ctx, domain.Snapshot{
			Slug:    fmt.Sprintf("show-%03d", i),
			Day:     "2024-03-02",
			Ratings: domain.Ratings{IMDbRating: "7.0"},
		})
	}
	early := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	src.InsertMarkerOnce(ctx, domain.Marker{Kind: domain.MarkerListed, Slug: "show-000", FirstSeen: late})
	src.InsertMarkerOnce(ctx, domain.Marker{Kind: domain.MarkerListed, Slug: "show-001", FirstSeen: late})
	// Destination already knows show-000 from earlier.
	dst.InsertMarkerOnce(ctx, domain.Marker{Kind: domain.MarkerListed, Slug: "show-000", FirstSeen: early})

	r, err := NewReplicator(Config{Source: src, Destination: dst, BatchSize: 100, Workers: 3})
	if err != nil {
		t.Fatal(err)
	}
	report, err := r.Replicate(ctx)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}

	if report.Snapshots != 250 || report.Markers != 2 || report.MarkerConflicts != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	snaps, _ := dst.Snapshots(ctx)
	if len(snaps) != 250 {
		t.Errorf("expected 250 snapshots in destination, got %d", len(snaps))
	}
	m, _ := dst.GetMarker(ctx, domain.MarkerListed, "show-000")
	if !m.FirstSeen.Equal(early) {
		t.Errorf("existing marker was overwritten: %v", m.FirstSeen)
	}

	// Replicating twice changes nothing.
	if _, err := r.Replicate(ctx); err != nil {
		t.Fatalf("second Replicate: %v", err)
	}
	snaps, _ = dst.Snapshots(ctx)
	if len(snaps) != 250 {
		t.Errorf("expected 250 snapshots after rerun, got %d", len(snaps))
	}
}

type failingStore struct {
	*store.MemoryStore
}

func (f failingStore) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	return errors.New("disk full")
}

func TestReplicate_StopsOnError(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStore()
	src.PutSnapshot(ctx, domain.Snapshot{Slug: "a", Day: "2024-03-02"})

	r, _ := NewReplicator(Config{Source: src, Destination: failingStore{store.NewMemoryStore()}})
	if _, err := r.Replicate(ctx); err == nil {
		t.Fatal("expected error from failing destination")
	}
}

func TestBatch(t *testing.T) {
	got := batch([]int{1, 2, 3, 4, 5}, 2)
	if len(got) != 3 || len(got[2]) != 1 {
		t.Errorf("unexpected batches %v", got)
	}
	if batch([]int{}, 10) != nil {
		t.Error("expected no batches for empty input")
	}
}
