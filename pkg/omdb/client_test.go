package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"showtime-cards/pkg/httpclient"
)

type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) add(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "key" {
			t.Errorf("missing api key in %s", r.URL.RawQuery)
		}
		switch {
		case q.Get("t") != "":
			rec.add("t=" + q.Get("t") + "&y=" + q.Get("y"))
		case q.Get("s") != "":
			rec.add("s=" + q.Get("s"))
		case q.Get("i") != "":
			rec.add("i=" + q.Get("i"))
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	hc := httpclient.NewClientWithConfig(httpclient.BrowserClient, httpclient.Config{
		Timeout: 2 * time.Second, Retries: 0, BaseDelay: time.Millisecond,
	})
	return NewClient(hc, "key", server.URL+"/"), rec
}

const notFound = `{"Response":"False","Error":"Movie not found!"}`

const fullRecord = `{
	"Title":"Dune","Year":"2021","imdbRating":"8.0","imdbVotes":"900,000","imdbID":"tt1160419",
	"Poster":"N/A","Genre":"Action, Adventure, Drama","Actors":"Timothée Chalamet, Rebecca Ferguson",
	"Plot":"A noble family becomes embroiled in a war for control over the galaxy's most valuable asset while its heir becomes troubled by visions of a dark future.",
	"Metascore":"74",
	"Ratings":[{"Source":"Internet Movie Database","Value":"8.0/10"},{"Source":"Rotten Tomatoes","Value":"83%"}],
	"Response":"True"}`

func TestLookup_RetriesPreviousYearOnce(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("y") == "2023" {
			w.Write([]byte(fullRecord))
			return
		}
		w.Write([]byte(notFound))
	})

	got, err := client.Lookup(context.Background(), "Dune", 2024)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if got.IMDbID != "tt1160419" {
		t.Errorf("unexpected ratings: %+v", got)
	}
	want := []string{"t=Dune&y=2024", "t=Dune&y=2023"}
	if q := rec.all(); strings.Join(q, "|") != strings.Join(want, "|") {
		t.Errorf("expected queries %v, got %v", want, q)
	}
}

func TestLookup_NeverTriesTwoYearsBack(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("y") == "2022" {
			w.Write([]byte(fullRecord))
			return
		}
		w.Write([]byte(notFound))
	})

	_, err := client.Lookup(context.Background(), "Dune", 2024)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, q := range rec.all() {
		if strings.HasSuffix(q, "y=2022") {
			t.Errorf("unexpected query two years back: %s", q)
		}
		if strings.HasPrefix(q, "s=") {
			t.Errorf("unexpected search fallback with a known year: %s", q)
		}
	}
	if n := len(rec.all()); n != 2 {
		t.Errorf("expected 2 queries, got %d", n)
	}
}

func TestLookup_ProviderErrorIsNotRetriedWithYear(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
	})

	_, err := client.Lookup(context.Background(), "Dune", 2024)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if n := len(rec.all()); n != 1 {
		t.Errorf("expected 1 query, got %d", n)
	}
}

func TestLookup_SearchFallbackWithoutYear(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("t") != "":
			w.Write([]byte(notFound))
		case q.Get("s") != "":
			w.Write([]byte(`{"Search":[{"Title":"Dune","imdbID":"tt1160419"},{"Title":"Dune","imdbID":"tt0087182"}],"Response":"True"}`))
		case q.Get("i") == "tt1160419":
			w.Write([]byte(fullRecord))
		default:
			w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
		}
	})

	got, err := client.Lookup(context.Background(), "Dune", 0)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if got.IMDbRating != "8.0" {
		t.Errorf("unexpected rating %q", got.IMDbRating)
	}
	want := []string{"t=Dune&y=", "s=Dune", "i=tt1160419"}
	if q := rec.all(); strings.Join(q, "|") != strings.Join(want, "|") {
		t.Errorf("expected queries %v, got %v", want, q)
	}
}

func TestLookup_Normalizes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fullRecord))
	})

	got, err := client.Lookup(context.Background(), "Dune", 2021)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}

	for name, v := range map[string]string{
		"IMDbRating": got.IMDbRating, "IMDbVotes": got.IMDbVotes, "IMDbID": got.IMDbID,
		"Poster": got.Poster, "RottenTomatoes": got.RottenTomatoes, "Metacritic": got.Metacritic,
		"Genre": got.Genre, "Actors": got.Actors, "Plot": got.Plot,
	} {
		if v == notAvailable {
			t.Errorf("%s carries the N/A sentinel", name)
		}
	}
	if got.Poster != "" {
		t.Errorf("expected empty poster, got %q", got.Poster)
	}
	if got.Genre != "Action" || got.Actors != "Timothée Chalamet" {
		t.Errorf("expected first genre/actor, got %q / %q", got.Genre, got.Actors)
	}
	if got.RottenTomatoes != "83%" || got.Metacritic != "74/100" {
		t.Errorf("unexpected critic scores %q / %q", got.RottenTomatoes, got.Metacritic)
	}
	if r := []rune(got.Plot); len(r) != plotLimit+1 || r[len(r)-1] != '…' {
		t.Errorf("expected truncated plot, got %q", got.Plot)
	}
}

func TestLookup_TransportError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Lookup(context.Background(), "Dune", 2024)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestLookup_EmptyTitle(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := client.Lookup(context.Background(), "  ", 2024); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(rec.all()) != 0 {
		t.Error("expected no requests for an empty title")
	}
}
