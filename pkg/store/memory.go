package store

import (
	"context"
	"sort"
	"sync"

	"showtime-cards/pkg/domain"
)

type snapshotKey struct {
	slug string
	day  string
}

type markerKey struct {
	kind domain.MarkerKind
	slug string
}

// MemoryStore keeps everything in process memory. Nothing survives the run.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[snapshotKey]domain.Snapshot
	markers   map[markerKey]domain.Marker
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[snapshotKey]domain.Snapshot),
		markers:   make(map[markerKey]domain.Marker),
	}
}

func (s *MemoryStore) GetSnapshot(ctx context.Context, slug, day string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapshotKey{slug, day}]
	if !ok {
		return domain.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *MemoryStore) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.FetchedAt = snap.FetchedAt.UTC()
	s.snapshots[snapshotKey{snap.Slug, snap.Day}] = snap
	return nil
}

func (s *MemoryStore) GetMarker(ctx context.Context, kind domain.MarkerKind, slug string) (domain.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markers[markerKey{kind, slug}]
	if !ok {
		return domain.Marker{}, ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := markerKey{m.Kind, m.Slug}
	if existing, ok := s.markers[key]; ok {
		return existing, nil
	}
	m.FirstSeen = m.FirstSeen.UTC()
	s.markers[key] = m
	return m, nil
}

// Snapshots returns all snapshots ordered by day, then slug.
func (s *MemoryStore) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

// Markers returns all markers ordered by kind, then slug.
func (s *MemoryStore) Markers(ctx context.Context) ([]domain.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
