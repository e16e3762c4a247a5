package leak

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"showtime-cards/pkg/httpclient"
)

// noResults is the placeholder name the index returns instead of an empty list.
const noResults = "No results returned"

type torrent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	InfoHash string `json:"info_hash"`
	Seeders  string `json:"seeders"`
	IMDb     string `json:"imdb"`
}

// JSONChecker queries an apibay-style index (`q.php?q=<imdb id>`).
type JSONChecker struct {
	http         *httpclient.HTTPClient
	endpoint     string
	skipRecorded bool
}

// NewJSONChecker creates a checker for endpoint. When skipRecorded is set,
// theatre recordings (CAM, TS) are not counted.
func NewJSONChecker(http *httpclient.HTTPClient, endpoint string, skipRecorded bool) *JSONChecker {
	return &JSONChecker{
		http:         http,
		endpoint:     endpoint,
		skipRecorded: skipRecorded,
	}
}

// Leaked returns true if the index lists at least one real result.
func (c *JSONChecker) Leaked(ctx context.Context, imdbID string) (bool, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return false, nil
	}

	q := url.Values{}
	q.Set("q", imdbID)
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}

	var results []torrent
	if err := c.http.GetJSON(ctx, c.endpoint+sep+q.Encode(), &results); err != nil {
		return false, fmt.Errorf("leak index: %w", err)
	}

	for _, t := range results {
		if t.ID == "0" || t.Name == noResults {
			continue
		}
		if c.skipRecorded && isLowQuality(t.Name) {
			continue
		}
		return true, nil
	}
	return false, nil
}
