package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/httpclient"
	"showtime-cards/pkg/logger"
)

// ErrEmptyCatalog is returned when no page size produced any show.
var ErrEmptyCatalog = errors.New("catalog returned no shows")

// DefaultPageSizes are tried in order until one yields shows.
var DefaultPageSizes = []int{1000, 500, 100, 50}

// Client reads the cinema chain's public JSON API.
type Client struct {
	http      *httpclient.HTTPClient
	baseURL   string
	language  string
	pageSizes []int
}

// Config holds the client settings.
type Config struct {
	BaseURL   string
	Language  string
	PageSizes []int
}

// NewClient creates a catalog client on top of an HTTP client.
func NewClient(http *httpclient.HTTPClient, cfg Config) *Client {
	sizes := cfg.PageSizes
	if len(sizes) == 0 {
		sizes = DefaultPageSizes
	}
	lang := cfg.Language
	if lang == "" {
		lang = "nl"
	}
	return &Client{
		http:      http,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		language:  lang,
		pageSizes: sizes,
	}
}

// FetchShows returns the full catalog for date (YYYY-MM-DD). Page sizes are
// tried in descending order; the first response with at least one show wins.
// ErrEmptyCatalog is returned when every size errors or comes back empty.
func (c *Client) FetchShows(ctx context.Context, date string) ([]domain.Show, error) {
	var lastErr error
	for _, size := range c.pageSizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var resp showsResponse
		err := c.http.GetJSON(ctx, c.showsURL(date, size), &resp)
		if err != nil {
			logger.WithField("page_size", size).Warnf("Catalog fetch failed: %v", err)
			lastErr = err
			continue
		}
		if len(resp.Shows) == 0 {
			logger.WithField("page_size", size).Warn("Catalog fetch returned no shows")
			continue
		}

		shows := make([]domain.Show, 0, len(resp.Shows))
		seen := make(map[string]bool, len(resp.Shows))
		for _, raw := range resp.Shows {
			if raw.Slug == "" || seen[raw.Slug] {
				continue
			}
			seen[raw.Slug] = true
			shows = append(shows, raw.toShow())
		}
		logger.WithFields(map[string]interface{}{"page_size": size, "shows": len(shows)}).Info("Fetched catalog")
		return shows, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w (last error: %v)", ErrEmptyCatalog, lastErr)
	}
	return nil, ErrEmptyCatalog
}

// ZoneShows returns the region-scoped listing for zone on date.
func (c *Client) ZoneShows(ctx context.Context, zone, date string) ([]ZoneShow, error) {
	var resp zoneResponse
	if err := c.http.GetJSON(ctx, c.zoneURL(zone, date), &resp); err != nil {
		return nil, fmt.Errorf("fetch zone %s: %w", zone, err)
	}
	return resp.Shows, nil
}

// ShowDetail fetches the detail document for one show. Synopsis is
// returned as plain text.
func (c *Client) ShowDetail(ctx context.Context, slug string) (*Detail, error) {
	var d Detail
	if err := c.http.GetJSON(ctx, c.detailURL(slug), &d); err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", slug, err)
	}
	d.Synopsis = HTMLToText(d.Synopsis)
	d.Directors = strings.TrimSpace(d.Directors)
	d.Actors = strings.TrimSpace(d.Actors)
	return &d, nil
}

func (c *Client) showsURL(date string, pageSize int) string {
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("date", date)
	q.Set("pageSize", fmt.Sprint(pageSize))
	return c.baseURL + "/api/shows?" + q.Encode()
}

func (c *Client) zoneURL(zone, date string) string {
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("date", date)
	return c.baseURL + "/api/zone/" + url.PathEscape(zone) + "/shows?" + q.Encode()
}

func (c *Client) detailURL(slug string) string {
	q := url.Values{}
	q.Set("language", c.language)
	return c.baseURL + "/api/show/" + url.PathEscape(slug) + "?" + q.Encode()
}

func (r rawShow) toShow() domain.Show {
	rating := r.ContentRating.Label
	if rating == "" {
		rating = r.ContentRating.Ref
	}
	return domain.Show{
		Slug:          r.Slug,
		Title:         strings.TrimSpace(r.Title),
		OriginalTitle: strings.TrimSpace(r.OriginalTitle),
		ReleaseDates:  normalizeDates(r.ReleaseAt),
		Duration:      r.Duration,
		ContentRating: rating,
		Genres:        []string(r.Genres),
		Synopsis:      HTMLToText(r.Synopsis),
	}
}

// normalizeDates keeps the date part of each value ("2024-02-28T00:00:00Z" -> "2024-02-28").
func normalizeDates(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) >= 10 {
			v = v[:10]
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

var blockBreaks = strings.NewReplacer(
	"<br>", " <br>",
	"<br/>", " <br/>",
	"<br />", " <br />",
	"</p>", " </p>",
	"</li>", " </li>",
)

// HTMLToText strips markup from an HTML fragment and collapses whitespace.
func HTMLToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	// Keep paragraph breaks readable once tags are gone.
	fragment = blockBreaks.Replace(fragment)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
