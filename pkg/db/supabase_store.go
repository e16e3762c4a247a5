package db

import (
	"context"
	"fmt"
	"strings"

	supabase "github.com/supabase-community/supabase-go"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/store"
)

const (
	snapshotsTable = "showtime_snapshots"
	markersTable   = "showtime_markers"

	// PostgREST caps unpaged responses, so enumeration reads in pages.
	restPageSize = 1000
)

type restSnapshot struct {
	Slug      string         `json:"slug"`
	Day       string         `json:"day"`
	Ratings   domain.Ratings `json:"ratings"`
	FetchedAt string         `json:"fetched_at"`
}

type restMarker struct {
	Kind      string `json:"kind"`
	Slug      string `json:"slug"`
	FirstSeen string `json:"first_seen"`
}

// SupabaseRESTStore implements store.Store through the Supabase REST API.
// It uses the same tables as PostgresStore but cannot create them; run
// the Postgres backend once, or apply the schema by hand.
//
// The SDK does not take a context, so ctx is only checked before each call.
type SupabaseRESTStore struct {
	sdk *supabase.Client
}

// NewSupabaseRESTStore creates a store on a connected SDK client.
func NewSupabaseRESTStore(sdk *supabase.Client) *SupabaseRESTStore {
	return &SupabaseRESTStore{sdk: sdk}
}

func (s *SupabaseRESTStore) GetSnapshot(ctx context.Context, slug, day string) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	var rows []restSnapshot
	_, err := s.sdk.From(snapshotsTable).
		Select("*", "", false).
		Eq("slug", slug).
		Eq("day", day).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	if len(rows) == 0 {
		return domain.Snapshot{}, store.ErrNotFound
	}
	return rows[0].snapshot()
}

// PutSnapshot upserts on (slug, day).
func (s *SupabaseRESTStore) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := restSnapshot{
		Slug:      snap.Slug,
		Day:       snap.Day,
		Ratings:   snap.Ratings,
		FetchedAt: domain.FormatTimestamp(snap.FetchedAt),
	}
	if _, _, err := s.sdk.From(snapshotsTable).Upsert(row, "slug,day", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *SupabaseRESTStore) GetMarker(ctx context.Context, kind domain.MarkerKind, slug string) (domain.Marker, error) {
	if err := ctx.Err(); err != nil {
		return domain.Marker{}, err
	}

	var rows []restMarker
	_, err := s.sdk.From(markersTable).
		Select("*", "", false).
		Eq("kind", string(kind)).
		Eq("slug", slug).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("query marker: %w", err)
	}
	if len(rows) == 0 {
		return domain.Marker{}, store.ErrNotFound
	}
	return rows[0].marker()
}

// InsertMarkerOnce inserts without merge; a unique violation means another
// run got there first. Either way the stored row is read back.
func (s *SupabaseRESTStore) InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	if err := ctx.Err(); err != nil {
		return domain.Marker{}, err
	}

	row := restMarker{Kind: string(m.Kind), Slug: m.Slug, FirstSeen: domain.FormatTimestamp(m.FirstSeen)}
	_, _, err := s.sdk.From(markersTable).Insert(row, false, "", "minimal", "").Execute()
	if err != nil && !isUniqueViolation(err) {
		return domain.Marker{}, fmt.Errorf("insert marker: %w", err)
	}
	return s.GetMarker(ctx, m.Kind, m.Slug)
}

func (s *SupabaseRESTStore) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	for offset := 0; ; offset += restPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rows []restSnapshot
		_, err := s.sdk.From(snapshotsTable).
			Select("*", "", false).
			Order("day", nil).
			Order("slug", nil).
			Range(offset, offset+restPageSize-1, "").
			ExecuteTo(&rows)
		if err != nil {
			return nil, fmt.Errorf("query snapshots: %w", err)
		}
		for _, row := range rows {
			snap, err := row.snapshot()
			if err != nil {
				return nil, err
			}
			out = append(out, snap)
		}
		if len(rows) < restPageSize {
			return out, nil
		}
	}
}

func (s *SupabaseRESTStore) Markers(ctx context.Context) ([]domain.Marker, error) {
	var out []domain.Marker
	for offset := 0; ; offset += restPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rows []restMarker
		_, err := s.sdk.From(markersTable).
			Select("*", "", false).
			Order("kind", nil).
			Order("slug", nil).
			Range(offset, offset+restPageSize-1, "").
			ExecuteTo(&rows)
		if err != nil {
			return nil, fmt.Errorf("query markers: %w", err)
		}
		for _, row := range rows {
			m, err := row.marker()
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		if len(rows) < restPageSize {
			return out, nil
		}
	}
}

// Close is a no-op; the REST client holds no connection.
func (s *SupabaseRESTStore) Close(ctx context.Context) error {
	return nil
}

func (r restSnapshot) snapshot() (domain.Snapshot, error) {
	snap := domain.Snapshot{Slug: r.Slug, Day: r.Day, Ratings: r.Ratings}
	if r.FetchedAt != "" {
		t, err := domain.ParseTimestamp(r.FetchedAt)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("snapshot %s/%s: %w", r.Day, r.Slug, err)
		}
		snap.FetchedAt = t
	}
	return snap, nil
}

func (r restMarker) marker() (domain.Marker, error) {
	t, err := domain.ParseTimestamp(r.FirstSeen)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("marker %s/%s: %w", r.Kind, r.Slug, err)
	}
	return domain.Marker{Kind: domain.MarkerKind(r.Kind), Slug: r.Slug, FirstSeen: t}, nil
}

// postgrest-go reports errors as "(code) message".
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "(23505)")
}
