package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/logger"
)

// fileDocument is the on-disk layout:
//
//	{"snapshots": {day: {slug: {...}}}, "markers": {kind: {slug: timestamp}}}
//
// Timestamps are strings so that older files written without a zone
// offset still load (they are read as UTC).
type fileDocument struct {
	Snapshots map[string]map[string]fileSnapshot `json:"snapshots"`
	Markers   map[string]map[string]string       `json:"markers"`
}

type fileSnapshot struct {
	Ratings   domain.Ratings `json:"ratings"`
	FetchedAt string         `json:"fetched_at"`
}

// FileStore is a MemoryStore loaded from and flushed to a JSON file.
// Changes are written back on Close; an unchanged store leaves the file alone.
type FileStore struct {
	*MemoryStore
	path  string
	dirty atomic.Bool
}

// OpenFileStore loads path. A missing file starts an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{MemoryStore: NewMemoryStore(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.WithField("path", path).Info("Cache file not found, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", path, err)
	}
	if err := s.load(doc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load(doc fileDocument) error {
	for day, bySlug := range doc.Snapshots {
		for slug, fsnap := range bySlug {
			snap := domain.Snapshot{Slug: slug, Day: day, Ratings: fsnap.Ratings}
			if fsnap.FetchedAt != "" {
				t, err := domain.ParseTimestamp(fsnap.FetchedAt)
				if err != nil {
					return fmt.Errorf("snapshot %s/%s: %w", day, slug, err)
				}
				snap.FetchedAt = t
			}
			s.snapshots[snapshotKey{slug, day}] = snap
		}
	}
	for kind, bySlug := range doc.Markers {
		for slug, raw := range bySlug {
			t, err := domain.ParseTimestamp(raw)
			if err != nil {
				return fmt.Errorf("marker %s/%s: %w", kind, slug, err)
			}
			k := domain.MarkerKind(kind)
			s.markers[markerKey{k, slug}] = domain.Marker{Kind: k, Slug: slug, FirstSeen: t}
		}
	}
	return nil
}

func (s *FileStore) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if err := s.MemoryStore.PutSnapshot(ctx, snap); err != nil {
		return err
	}
	s.dirty.Store(true)
	return nil
}

func (s *FileStore) InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	stored, err := s.MemoryStore.InsertMarkerOnce(ctx, m)
	if err != nil {
		return stored, err
	}
	if stored.FirstSeen.Equal(m.FirstSeen) {
		s.dirty.Store(true)
	}
	return stored, nil
}

// Save writes the store to disk atomically (temp file, then rename).
func (s *FileStore) Save() error {
	s.mu.RLock()
	doc := fileDocument{
		Snapshots: make(map[string]map[string]fileSnapshot),
		Markers:   make(map[string]map[string]string),
	}
	for key, snap := range s.snapshots {
		if doc.Snapshots[key.day] == nil {
			doc.Snapshots[key.day] = make(map[string]fileSnapshot)
		}
		entry := fileSnapshot{Ratings: snap.Ratings}
		if !snap.FetchedAt.IsZero() {
			entry.FetchedAt = domain.FormatTimestamp(snap.FetchedAt)
		}
		doc.Snapshots[key.day][key.slug] = entry
	}
	for key, m := range s.markers {
		kind := string(key.kind)
		if doc.Markers[kind] == nil {
			doc.Markers[kind] = make(map[string]string)
		}
		doc.Markers[kind][key.slug] = domain.FormatTimestamp(m.FirstSeen)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := WriteFileAtomic(s.path, data); err != nil {
		return err
	}
	s.dirty.Store(false)
	return nil
}

// Close flushes the store to disk if anything changed since it was opened.
func (s *FileStore) Close(ctx context.Context) error {
	if !s.dirty.Load() {
		return nil
	}
	return s.Save()
}

// WriteFileAtomic writes data next to path and renames it into place, so
// readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
