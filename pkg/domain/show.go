package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Show represents a single film listed in the catalog for the target date.
// Slug is the identity and never changes once the show has been fetched.
type Show struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	ReleaseDates  []string `json:"release_dates"` // YYYY-MM-DD
	Duration      int      `json:"duration"`      // minutes
	ContentRating string   `json:"content_rating"`
	Genres        []string `json:"genres"`

	// Filled by the per-show detail fetch, when enabled.
	Synopsis  string `json:"synopsis"`
	Directors string `json:"directors"`
	Actors    string `json:"actors"`

	// Zone-scoped flags, copied from the region listing.
	Kids       bool     `json:"kids"`
	Bookable   bool     `json:"bookable"`
	ComingSoon bool     `json:"coming_soon"`
	Tags       []string `json:"tags"`
	ShowCount  int      `json:"show_count"`

	Ratings   Ratings   `json:"ratings"`
	Lifecycle Lifecycle `json:"lifecycle"`
}

// Lifecycle holds the flags derived from first-seen markers and the leak check.
type Lifecycle struct {
	IsNew               bool    `json:"is_new"`
	HoursSinceNew       float64 `json:"hours_since_new"`
	NewOpacity          float64 `json:"new_opacity"`
	NewlyBookable       bool    `json:"newly_bookable"`
	HoursSinceBookable  float64 `json:"hours_since_bookable"`
	NewlyAnnounced      bool    `json:"newly_announced"`
	HoursSinceAnnounced float64 `json:"hours_since_announced"`
	IsLeaked            bool    `json:"is_leaked"`
	Badge               string  `json:"badge"`
}

// FirstRelease returns the earliest release date, or "" when none is known.
func (s *Show) FirstRelease() string {
	first := ""
	for _, d := range s.ReleaseDates {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if first == "" || d < first {
			first = d
		}
	}
	return first
}

// ReleaseYear returns the year of the earliest release date, or 0.
func (s *Show) ReleaseYear() int {
	first := s.FirstRelease()
	if len(first) < 4 {
		return 0
	}
	year, err := strconv.Atoi(first[:4])
	if err != nil {
		return 0
	}
	return year
}

// LookupTitle is the title sent to rating providers: the original title
// without parenthetical qualifiers such as "(OV)" or "(2D)", falling back to
// the display title.
func (s *Show) LookupTitle() string {
	if t := StripParentheticals(s.OriginalTitle); t != "" {
		return t
	}
	return StripParentheticals(s.Title)
}

// StripParentheticals removes every "(...)" group and collapses whitespace.
func StripParentheticals(title string) string {
	var b strings.Builder
	depth := 0
	for _, r := range title {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SortByRating orders shows by IMDb rating, highest first. Shows without a
// rating go last, ties are broken by title.
func SortByRating(shows []Show) {
	sort.SliceStable(shows, func(i, j int) bool {
		ri, okI := shows[i].Ratings.Score()
		rj, okJ := shows[j].Ratings.Score()
		switch {
		case okI && !okJ:
			return true
		case !okI && okJ:
			return false
		case okI && okJ && ri != rj:
			return ri > rj
		}
		return strings.ToLower(shows[i].Title) < strings.ToLower(shows[j].Title)
	})
}
