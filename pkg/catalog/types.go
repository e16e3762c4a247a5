package catalog

import (
	"encoding/json"
	"sort"
	"strings"
)

// showsResponse is the body of /api/shows.
type showsResponse struct {
	Shows        []rawShow `json:"shows"`
	TotalResults int       `json:"totalResults"`
}

type rawShow struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	OriginalTitle string        `json:"originalTitle"`
	ReleaseAt     stringList    `json:"releaseAt"`
	Duration      int           `json:"duration"`
	ContentRating contentRating `json:"contentRating"`
	Genres        stringList    `json:"genres"`
	Synopsis      string        `json:"synopsis"`
}

type contentRating struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
}

// zoneResponse is the body of /api/zone/{zone}/shows.
type zoneResponse struct {
	Shows []ZoneShow `json:"shows"`
}

// ZoneShow is one entry of the region listing with its zone-scoped flags.
type ZoneShow struct {
	Slug         string                     `json:"slug"`
	Bookable     bool                       `json:"bookable"`
	IsKids       bool                       `json:"isKids"`
	IsComingSoon bool                       `json:"isComingSoon"`
	Tags         []string                   `json:"tags"`
	ShowCount    int                        `json:"showCount"`
	Days         map[string]json.RawMessage `json:"days"`
}

// Count is the number of showings in the listing window.
func (z ZoneShow) Count() int {
	if z.ShowCount > 0 {
		return z.ShowCount
	}
	return len(z.Days)
}

// Detail is the per-show detail document.
type Detail struct {
	Slug      string     `json:"slug"`
	Synopsis  string     `json:"synopsis"`
	Directors string     `json:"directors"`
	Actors    string     `json:"actors"`
	Genres    stringList `json:"genres"`
}

// stringList accepts a string, a list of strings, or a map of strings
// (localised values keyed by locale). Map values are sorted for a stable order.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) != "" {
			*l = stringList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}

	var byLocale map[string]string
	if err := json.Unmarshal(data, &byLocale); err != nil {
		// Unknown shape: leave empty rather than fail the whole catalog.
		return nil
	}
	out := make([]string, 0, len(byLocale))
	for _, v := range byLocale {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	*l = out
	return nil
}
