package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"showtime-cards/pkg/config"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/store"
)

// Options selects and configures a store backend.
type Options struct {
	Backend string // file, memory, mongo, postgres, supabase, redis

	Path string

	MongoURI string
	MongoDB  string

	PostgresDSN string

	SupabaseURL      string
	SupabaseKey      string
	SupabasePassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// OptionsFromConfig copies the store settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Backend:          cfg.Store,
		Path:             cfg.StorePath,
		MongoURI:         cfg.MongoURI,
		MongoDB:          cfg.MongoDB,
		PostgresDSN:      cfg.PostgresDSN,
		SupabaseURL:      cfg.SupabaseURL,
		SupabaseKey:      cfg.SupabaseKey,
		SupabasePassword: cfg.SupabasePassword,
		RedisAddr:        cfg.RedisAddr,
		RedisPassword:    cfg.RedisPassword,
		RedisDB:          cfg.RedisDB,
	}
}

// Open connects the selected backend and returns it ready for use.
func Open(ctx context.Context, opts Options) (store.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	log := logger.WithField("store", backend)

	switch backend {
	case "", "file":
		log.WithField("path", opts.Path).Info("Opening file store")
		s, err := store.OpenFileStore(opts.Path)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "memory":
		log.Info("Using in-memory store")
		return store.NewMemoryStore(), nil

	case "mongo":
		log.Info("Connecting to MongoDB...")
		s, err := NewMongoStore(opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := s.Connect(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return s, nil

	case "postgres":
		log.Info("Connecting to Postgres...")
		client := NewPostgresClient(PostgresConfig{DSN: opts.PostgresDSN, MaxOpenConns: 10})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return migrated(ctx, NewPostgresStore(client))

	case "supabase":
		log.Info("Connecting to Supabase...")
		client := NewSupabaseClient(SupabaseConfig{
			ConnectionString: opts.PostgresDSN,
			SupabaseURL:      opts.SupabaseURL,
			SupabaseKey:      opts.SupabaseKey,
			Password:         opts.SupabasePassword,
			MaxOpenConns:     10,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		if !client.HasDirectDB() {
			log.Info("No database credentials, using the REST API")
			return NewSupabaseRESTStore(client.SDK()), nil
		}
		return migrated(ctx, NewPostgresStore(client))

	case "redis":
		log.Info("Connecting to Redis...")
		s := NewRedisStore(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		}, DefaultRedisPrefix)
		if err := s.Connect(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

func migrated(ctx context.Context, s *PostgresStore) (store.Store, error) {
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}
