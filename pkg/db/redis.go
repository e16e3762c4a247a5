package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/store"
)

// DefaultRedisPrefix namespaces every key the store writes.
const DefaultRedisPrefix = "showtimes"

// RedisStore keeps snapshots as JSON strings and markers in one hash per kind:
//
//	{prefix}:snapshot:{day}:{slug} -> JSON snapshot
//	{prefix}:marker:{kind}         -> hash slug -> RFC3339 first-seen
type RedisStore struct {
	Client *redis.Client
	prefix string
}

// NewRedisStore creates a store on a new client for opt.
func NewRedisStore(opt *redis.Options, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{Client: redis.NewClient(opt), prefix: prefix}
}

// Connect pings the server.
func (s *RedisStore) Connect(ctx context.Context) error {
	if err := s.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Close(ctx context.Context) error {
	return s.Client.Close()
}

func (s *RedisStore) snapshotKey(slug, day string) string {
	return s.prefix + ":snapshot:" + day + ":" + slug
}

func (s *RedisStore) markerKey(kind domain.MarkerKind) string {
	return s.prefix + ":marker:" + string(kind)
}

func (s *RedisStore) GetSnapshot(ctx context.Context, slug, day string) (domain.Snapshot, error) {
	b, err := s.Client.Get(ctx, s.snapshotKey(slug, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", slug, err)
	}
	snap.FetchedAt = snap.FetchedAt.UTC()
	return snap, nil
}

func (s *RedisStore) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	snap.FetchedAt = snap.FetchedAt.UTC()
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.Client.Set(ctx, s.snapshotKey(snap.Slug, snap.Day), b, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) GetMarker(ctx context.Context, kind domain.MarkerKind, slug string) (domain.Marker, error) {
	raw, err := s.Client.HGet(ctx, s.markerKey(kind), slug).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Marker{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Marker{}, fmt.Errorf("get marker: %w", err)
	}

	t, err := domain.ParseTimestamp(raw)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("marker %s/%s: %w", kind, slug, err)
	}
	return domain.Marker{Kind: kind, Slug: slug, FirstSeen: t}, nil
}

// InsertMarkerOnce uses HSETNX, which only writes missing fields.
func (s *RedisStore) InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	err := s.Client.HSetNX(ctx, s.markerKey(m.Kind), m.Slug, domain.FormatTimestamp(m.FirstSeen)).Err()
	if err != nil {
		return domain.Marker{}, fmt.Errorf("insert marker: %w", err)
	}
	return s.GetMarker(ctx, m.Kind, m.Slug)
}

func (s *RedisStore) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	keys, err := s.scan(ctx, s.prefix+":snapshot:*")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Snapshot, 0, len(keys))
	for _, key := range keys {
		b, err := s.Client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			continue // Skip invalid values
		}
		snap.FetchedAt = snap.FetchedAt.UTC()
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

func (s *RedisStore) Markers(ctx context.Context) ([]domain.Marker, error) {
	keys, err := s.scan(ctx, s.prefix+":marker:*")
	if err != nil {
		return nil, err
	}

	var out []domain.Marker
	for _, key := range keys {
		kind := domain.MarkerKind(strings.TrimPrefix(key, s.prefix+":marker:"))
		fields, err := s.Client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", key, err)
		}
		for slug, raw := range fields {
			t, err := domain.ParseTimestamp(raw)
			if err != nil {
				continue // Skip invalid values
			}
			out = append(out, domain.Marker{Kind: kind, Slug: slug, FirstSeen: t})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (s *RedisStore) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.Client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return keys, nil
}
