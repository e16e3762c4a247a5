package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OMDB_KEY", "")
	t.Setenv("WORKERS", "")
	t.Setenv("PAGE_SIZES", "")

	cfg := Load()
	if cfg.Workers != 10 {
		t.Fatalf("Workers = %d, want 10", cfg.Workers)
	}
	if len(cfg.PageSizes) != 4 || cfg.PageSizes[0] != 1000 {
		t.Fatalf("PageSizes = %v", cfg.PageSizes)
	}
	if cfg.NewWindow != 48*time.Hour {
		t.Fatalf("NewWindow = %v", cfg.NewWindow)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OMDB_KEY", "abc")
	t.Setenv("WORKERS", "4")
	t.Setenv("PAGE_SIZES", "200, x, 20")
	t.Setenv("NEW_WINDOW", "24h")
	t.Setenv("FETCH_DETAILS", "true")

	cfg := Load()
	if cfg.OMDbKey != "abc" || cfg.Workers != 4 || !cfg.FetchDetails {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.PageSizes) != 2 || cfg.PageSizes[0] != 200 || cfg.PageSizes[1] != 20 {
		t.Fatalf("PageSizes = %v", cfg.PageSizes)
	}
	if cfg.NewWindow != 24*time.Hour {
		t.Fatalf("NewWindow = %v", cfg.NewWindow)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Special"}
	if cfg.Location() != time.UTC {
		t.Fatalf("Location() = %v", cfg.Location())
	}
}

func TestParseIntList(t *testing.T) {
	got := ParseIntList("500,0,-1,50")
	if len(got) != 2 || got[0] != 500 || got[1] != 50 {
		t.Fatalf("ParseIntList = %v", got)
	}
}
