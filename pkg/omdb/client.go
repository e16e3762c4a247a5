package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/httpclient"
	"showtime-cards/pkg/logger"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "https://www.omdbapi.com/"

// notAvailable is the sentinel OMDb uses for missing fields.
const notAvailable = "N/A"

// plotLimit is the number of runes kept from the plot before the ellipsis.
const plotLimit = 110

var (
	// ErrNotFound means the provider had no title matching the query.
	ErrNotFound = errors.New("title not found")
	// ErrProvider wraps any other non-success answer (bad key, quota).
	ErrProvider = errors.New("ratings provider error")
)

// Client looks titles up on OMDb.
type Client struct {
	http    *httpclient.HTTPClient
	apiKey  string
	baseURL string
}

// NewClient creates a new OMDb client. An empty baseURL uses DefaultBaseURL.
func NewClient(http *httpclient.HTTPClient, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    http,
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

type response struct {
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	IMDbRating string   `json:"imdbRating"`
	IMDbVotes  string   `json:"imdbVotes"`
	IMDbID     string   `json:"imdbID"`
	Poster     string   `json:"Poster"`
	Genre      string   `json:"Genre"`
	Actors     string   `json:"Actors"`
	Plot       string   `json:"Plot"`
	Metascore  string   `json:"Metascore"`
	Ratings    []source `json:"Ratings"`
	Search     []hit    `json:"Search"`
	Response   string   `json:"Response"`
	Error      string   `json:"Error"`
}

type source struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

type hit struct {
	IMDbID string `json:"imdbID"`
	Title  string `json:"Title"`
}

// Lookup fetches ratings for title. When year is known and the title is not
// found, the lookup is retried once with year-1 and never further back.
// Without a year a search is used as fallback and its first hit is resolved
// by id.
func (c *Client) Lookup(ctx context.Context, title string, year int) (domain.Ratings, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Ratings{}, ErrNotFound
	}

	if year > 0 {
		r, err := c.byTitle(ctx, title, year)
		if errors.Is(err, ErrNotFound) {
			logger.WithField("title", title).Debugf("Not found for %d, retrying with %d", year, year-1)
			r, err = c.byTitle(ctx, title, year-1)
		}
		if err != nil {
			return domain.Ratings{}, err
		}
		return normalize(r), nil
	}

	r, err := c.byTitle(ctx, title, 0)
	if errors.Is(err, ErrNotFound) {
		r, err = c.bySearch(ctx, title)
	}
	if err != nil {
		return domain.Ratings{}, err
	}
	return normalize(r), nil
}

func (c *Client) byTitle(ctx context.Context, title string, year int) (*response, error) {
	q := url.Values{}
	q.Set("t", title)
	if year > 0 {
		q.Set("y", strconv.Itoa(year))
	}
	return c.query(ctx, q)
}

func (c *Client) bySearch(ctx context.Context, title string) (*response, error) {
	q := url.Values{}
	q.Set("s", title)
	found, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(found.Search) == 0 || found.Search[0].IMDbID == "" {
		return nil, ErrNotFound
	}

	q = url.Values{}
	q.Set("i", found.Search[0].IMDbID)
	return c.query(ctx, q)
}

func (c *Client) query(ctx context.Context, q url.Values) (*response, error) {
	q.Set("apikey", c.apiKey)
	q.Set("plot", "short")
	q.Set("r", "json")

	var r response
	if err := c.http.GetJSON(ctx, c.baseURL+"?"+q.Encode(), &r); err != nil {
		return nil, fmt.Errorf("omdb request: %w", err)
	}
	if r.Response == "True" {
		return &r, nil
	}
	if isNotFound(r.Error) {
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("%w: %s", ErrProvider, r.Error)
}

func isNotFound(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "incorrect imdb id")
}

func normalize(r *response) domain.Ratings {
	out := domain.Ratings{
		IMDbRating: clean(r.IMDbRating),
		IMDbVotes:  clean(r.IMDbVotes),
		IMDbID:     clean(r.IMDbID),
		Poster:     clean(r.Poster),
		Genre:      firstEntry(clean(r.Genre)),
		Actors:     firstEntry(clean(r.Actors)),
		Plot:       truncate(clean(r.Plot), plotLimit),
	}
	for _, s := range r.Ratings {
		switch s.Source {
		case "Rotten Tomatoes":
			out.RottenTomatoes = clean(s.Value)
		case "Metacritic":
			out.Metacritic = clean(s.Value)
		}
	}
	if out.Metacritic == "" {
		if m := clean(r.Metascore); m != "" {
			out.Metacritic = m + "/100"
		}
	}
	return out
}

func clean(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, notAvailable) {
		return ""
	}
	return v
}

func firstEntry(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(first)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
