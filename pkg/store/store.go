package store

import (
	"context"
	"errors"

	"showtime-cards/pkg/domain"
)

// ErrNotFound is returned by point lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store persists rating snapshots and lifecycle markers across runs.
//
// Snapshots are keyed by (slug, day) and upserted. Markers are keyed by
// (kind, slug) and written at most once: InsertMarkerOnce never moves an
// existing FirstSeen and returns whichever marker is stored afterwards.
type Store interface {
	GetSnapshot(ctx context.Context, slug, day string) (domain.Snapshot, error)
	PutSnapshot(ctx context.Context, snap domain.Snapshot) error

	GetMarker(ctx context.Context, kind domain.MarkerKind, slug string) (domain.Marker, error)
	InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error)

	// Snapshots and Markers enumerate everything, for replication.
	Snapshots(ctx context.Context) ([]domain.Snapshot, error)
	Markers(ctx context.Context) ([]domain.Marker, error)

	Close(ctx context.Context) error
}
