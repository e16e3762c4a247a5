package leak

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"showtime-cards/pkg/httpclient"
)

// FeedChecker queries a Torznab indexer, which answers with an RSS feed.
type FeedChecker struct {
	http         *httpclient.HTTPClient
	feedParser   *gofeed.Parser
	endpoint     string
	skipRecorded bool
}

// NewFeedChecker creates a checker for a Torznab endpoint. The endpoint may
// already carry the apikey parameter.
func NewFeedChecker(http *httpclient.HTTPClient, endpoint string, skipRecorded bool) *FeedChecker {
	return &FeedChecker{
		http:         http,
		feedParser:   gofeed.NewParser(),
		endpoint:     endpoint,
		skipRecorded: skipRecorded,
	}
}

// Leaked returns true if the feed has at least one item.
func (c *FeedChecker) Leaked(ctx context.Context, imdbID string) (bool, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return false, nil
	}

	body, err := c.http.GetBody(ctx, c.searchURL(imdbID))
	if err != nil {
		return false, fmt.Errorf("torznab request: %w", err)
	}

	feed, err := c.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to parse torznab feed: %w", err)
	}
	if feed == nil {
		return false, nil
	}

	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		if c.skipRecorded && isLowQuality(item.Title) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (c *FeedChecker) searchURL(imdbID string) string {
	q := url.Values{}
	q.Set("t", "movie")
	q.Set("imdbid", strings.TrimPrefix(imdbID, "tt"))
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	return c.endpoint + sep + q.Encode()
}
