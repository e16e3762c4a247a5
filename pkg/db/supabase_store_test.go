package db

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakePostgREST serves the subset of the PostgREST API the REST store uses:
// eq filters, limit/offset, plain insert and merge-duplicates upsert.
type fakePostgREST struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]any
}

var tableKeys = map[string][]string{
	snapshotsTable: {"slug", "day"},
	markersTable:   {"kind", "slug"},
}

func newFakePostgREST() *fakePostgREST {
	return &fakePostgREST{tables: map[string]map[string]map[string]any{
		snapshotsTable: {},
		markersTable:   {},
	}}
}

func rowKey(table string, row map[string]any) string {
	var parts []string
	for _, col := range tableKeys[table] {
		parts = append(parts, row[col].(string))
	}
	return strings.Join(parts, "|")
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	f.mu.Lock()
	defer f.mu.Unlock()

	rows, ok := f.tables[table]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"42P01","message":"relation does not exist"}`))
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		var keys []string
		for k, row := range rows {
			match := true
			for col, vals := range q {
				switch col {
				case "select", "limit", "offset", "order":
					continue
				}
				if want := strings.TrimPrefix(vals[0], "eq."); row[col] != want {
					match = false
				}
			}
			if match {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			limit = len(keys)
		}
		out := []map[string]any{}
		for i := offset; i < len(keys) && i < offset+limit; i++ {
			out = append(out, rows[keys[i]])
		}
		json.NewEncoder(w).Encode(out)

	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":"PGRST102","message":"bad body"}`))
			return
		}
		k := rowKey(table, row)
		merge := strings.Contains(r.Header.Get("Prefer"), "merge-duplicates")
		if _, exists := rows[k]; exists && !merge {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
			return
		}
		rows[k] = row
		w.WriteHeader(http.StatusCreated)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestSupabaseRESTStore_Contract(t *testing.T) {
	server := httptest.NewServer(newFakePostgREST())
	defer server.Close()

	ctx := context.Background()
	s, err := Open(ctx, Options{Backend: "supabase", SupabaseURL: server.URL, SupabaseKey: "service-key"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*SupabaseRESTStore); !ok {
		t.Fatalf("expected the REST store without database credentials, got %T", s)
	}
	exerciseStore(t, s)

	snaps, err := s.Snapshots(ctx)
	if err != nil || len(snaps) != 1 || snaps[0].Ratings.IMDbRating != "7.5" {
		t.Errorf("unexpected snapshots %+v, %v", snaps, err)
	}
}

func TestSupabaseRESTStore_MissingTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"42P01","message":"relation does not exist"}`))
	}))
	defer server.Close()

	s, err := Open(context.Background(), Options{Backend: "supabase", SupabaseURL: server.URL, SupabaseKey: "k"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.GetSnapshot(context.Background(), "a", "2024-03-02"); err == nil || !strings.Contains(err.Error(), "42P01") {
		t.Errorf("expected the REST error to surface, got %v", err)
	}
}

func TestOpen_SupabaseConnectionErrorSurfaces(t *testing.T) {
	_, err := Open(context.Background(), Options{
		Backend:     "supabase",
		PostgresDSN: "postgres://postgres:pw@127.0.0.1:1/postgres?connect_timeout=1",
		SupabaseURL: "https://abcd.supabase.co",
		SupabaseKey: "k",
	})
	if err == nil || !strings.Contains(err.Error(), "ping supabase postgres") {
		t.Fatalf("expected the ping error even with a REST key set, got %v", err)
	}
}

func TestOpen_SupabaseWithoutCredentials(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "supabase"}); err == nil {
		t.Fatal("expected an error without any credentials")
	}
}
