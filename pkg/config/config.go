package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Values come from the environment
// (optionally seeded from a .env file) and can be overridden by flags in main.
type Config struct {
	// Catalog
	CatalogBaseURL string
	Language       string
	Zone           string
	PageSizes      []int
	FetchDetails   bool
	ExcludeFile    string

	// Ratings
	OMDbKey     string
	OMDbBaseURL string

	// Leak index
	LeakBackend string // json, torznab or off
	LeakURL     string

	// HTTP
	HTTPTimeout time.Duration
	HTTPRetries int
	Workers     int

	// Store
	Store            string // file, memory, mongo, postgres, supabase, redis
	StorePath        string
	MongoURI         string
	MongoDB          string
	PostgresDSN      string
	SupabaseURL      string
	SupabaseKey      string
	SupabasePassword string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Lifecycle
	Timezone  string
	NewWindow time.Duration

	// Output and logging
	Output    string
	LogLevel  string
	LogFormat string
}

// Load reads a .env file from the working directory when present and then
// builds a Config from the environment.
func Load() *Config {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	return &Config{
		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "https://www.pathe.nl"),
		Language:       getEnv("LANGUAGE", "nl"),
		Zone:           getEnv("ZONE", "den-haag"),
		PageSizes:      getIntSliceEnv("PAGE_SIZES", []int{1000, 500, 100, 50}),
		FetchDetails:   getBoolEnv("FETCH_DETAILS", false),
		ExcludeFile:    getEnv("EXCLUDE_FILE", ""),

		OMDbKey:     getEnv("OMDB_KEY", ""),
		OMDbBaseURL: getEnv("OMDB_BASE_URL", "https://www.omdbapi.com/"),

		LeakBackend: getEnv("LEAK_BACKEND", "json"),
		LeakURL:     getEnv("LEAK_URL", "https://apibay.org/q.php"),

		HTTPTimeout: getDuration("HTTP_TIMEOUT", 20*time.Second),
		HTTPRetries: getIntEnv("HTTP_RETRIES", 3),
		Workers:     getIntEnv("WORKERS", 10),

		Store:            getEnv("STORE", "file"),
		StorePath:        getEnv("STORE_PATH", "showtimes-cache.json"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getEnv("MONGO_DB", "showtimes"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		SupabaseURL:      getEnv("SUPABASE_URL", ""),
		SupabaseKey:      getEnv("SUPABASE_KEY", ""),
		SupabasePassword: getEnv("SUPABASE_PASSWORD", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),

		Timezone:  getEnv("TIMEZONE", "Europe/Amsterdam"),
		NewWindow: getDuration("NEW_WINDOW", 48*time.Hour),

		Output:    getEnv("OUTPUT", "shows.json"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntSliceEnv parses a comma separated list; invalid entries are skipped.
func getIntSliceEnv(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, p := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// ParseIntList is the flag-side counterpart of getIntSliceEnv.
func ParseIntList(value string) []int {
	var out []int
	for _, p := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
