package db

import (
	"database/sql"

	"showtime-cards/pkg/store"
)

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// This allows both PostgresClient and SupabaseClient to back a PostgresStore.
type DBProvider interface {
	DB() *sql.DB
}

var (
	_ store.Store = (*MongoStore)(nil)
	_ store.Store = (*PostgresStore)(nil)
	_ store.Store = (*RedisStore)(nil)
	_ store.Store = (*SupabaseRESTStore)(nil)
	_ DBProvider  = (*PostgresClient)(nil)
	_ DBProvider  = (*SupabaseClient)(nil)
)
