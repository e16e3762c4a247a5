package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/store"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS showtime_snapshots (
		slug       TEXT        NOT NULL,
		day        TEXT        NOT NULL,
		ratings    JSONB       NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (slug, day)
	)`,
	`CREATE TABLE IF NOT EXISTS showtime_markers (
		kind       TEXT        NOT NULL,
		slug       TEXT        NOT NULL,
		first_seen TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (kind, slug)
	)`,
}

// PostgresStore implements store.Store on any DBProvider (plain Postgres or
// Supabase with a direct connection).
type PostgresStore struct {
	provider DBProvider
}

// NewPostgresStore creates a store on an already connected provider.
func NewPostgresStore(provider DBProvider) *PostgresStore {
	return &PostgresStore{provider: provider}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) db() (*sql.DB, error) {
	db := s.provider.DB()
	if db == nil {
		return nil, fmt.Errorf("postgres handle not initialized")
	}
	return db, nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, slug, day string) (domain.Snapshot, error) {
	db, err := s.db()
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap := domain.Snapshot{Slug: slug, Day: day}
	var raw []byte
	err = db.QueryRowContext(ctx,
		`SELECT ratings, fetched_at FROM showtime_snapshots WHERE slug = $1 AND day = $2`,
		slug, day,
	).Scan(&raw, &snap.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap.Ratings); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode ratings for %s: %w", slug, err)
	}
	snap.FetchedAt = snap.FetchedAt.UTC()
	return snap, nil
}

// PutSnapshot upserts on (slug, day).
func (s *PostgresStore) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(snap.Ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO showtime_snapshots (slug, day, ratings, fetched_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (slug, day) DO UPDATE
		SET ratings = EXCLUDED.ratings, fetched_at = EXCLUDED.fetched_at`,
		snap.Slug, snap.Day, string(raw), snap.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMarker(ctx context.Context, kind domain.MarkerKind, slug string) (domain.Marker, error) {
	db, err := s.db()
	if err != nil {
		return domain.Marker{}, err
	}

	m := domain.Marker{Kind: kind, Slug: slug}
	err = db.QueryRowContext(ctx,
		`SELECT first_seen FROM showtime_markers WHERE kind = $1 AND slug = $2`,
		string(kind), slug,
	).Scan(&m.FirstSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Marker{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Marker{}, fmt.Errorf("query marker: %w", err)
	}
	m.FirstSeen = m.FirstSeen.UTC()
	return m, nil
}

// InsertMarkerOnce inserts with ON CONFLICT DO NOTHING and reads back the stored row.
func (s *PostgresStore) InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	db, err := s.db()
	if err != nil {
		return domain.Marker{}, err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO showtime_markers (kind, slug, first_seen)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, slug) DO NOTHING`,
		string(m.Kind), m.Slug, m.FirstSeen.UTC(),
	)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("insert marker: %w", err)
	}
	return s.GetMarker(ctx, m.Kind, m.Slug)
}

func (s *PostgresStore) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT slug, day, ratings, fetched_at FROM showtime_snapshots ORDER BY day, slug`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var raw []byte
		if err := rows.Scan(&snap.Slug, &snap.Day, &raw, &snap.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal(raw, &snap.Ratings); err != nil {
			return nil, fmt.Errorf("decode ratings for %s: %w", snap.Slug, err)
		}
		snap.FetchedAt = snap.FetchedAt.UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Markers(ctx context.Context) ([]domain.Marker, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT kind, slug, first_seen FROM showtime_markers ORDER BY kind, slug`)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	var out []domain.Marker
	for rows.Next() {
		var m domain.Marker
		var kind string
		if err := rows.Scan(&kind, &m.Slug, &m.FirstSeen); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		m.Kind = domain.MarkerKind(kind)
		m.FirstSeen = m.FirstSeen.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close closes the provider's connection when it owns one.
func (s *PostgresStore) Close(ctx context.Context) error {
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
