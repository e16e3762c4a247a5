package domain

import (
	"strconv"
	"time"
)

// Ratings is the enrichment snapshot attached to a show. Every field is
// always present; a missing value is the empty string, never a provider
// sentinel such as "N/A".
type Ratings struct {
	IMDbRating     string `json:"imdb_rating" bson:"imdb_rating"`
	IMDbVotes      string `json:"imdb_votes" bson:"imdb_votes"`
	IMDbID         string `json:"imdb_id" bson:"imdb_id"`
	Poster         string `json:"poster" bson:"poster"`
	RottenTomatoes string `json:"rotten_tomatoes" bson:"rotten_tomatoes"`
	Metacritic     string `json:"metacritic" bson:"metacritic"`
	Genre          string `json:"genre" bson:"genre"`
	Actors         string `json:"actors" bson:"actors"`
	Plot           string `json:"plot" bson:"plot"`
}

// Score parses IMDbRating.
func (r Ratings) Score() (float64, bool) {
	if r.IMDbRating == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(r.IMDbRating, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Empty reports whether no field has been filled.
func (r Ratings) Empty() bool {
	return r == Ratings{}
}

// Snapshot is one cached enrichment result per (slug, day).
type Snapshot struct {
	Slug      string    `json:"slug" bson:"slug"`
	Day       string    `json:"day" bson:"day"` // YYYY-MM-DD in the configured timezone
	Ratings   Ratings   `json:"ratings" bson:"ratings"`
	FetchedAt time.Time `json:"fetched_at" bson:"fetched_at"`
}

// MarkerKind names a tracked lifecycle transition.
type MarkerKind string

const (
	MarkerListed   MarkerKind = "listed"
	MarkerBookable MarkerKind = "bookable"
	MarkerSoon     MarkerKind = "soon"
)

// Marker records when a transition was first observed for a slug.
type Marker struct {
	Kind      MarkerKind `json:"kind" bson:"kind"`
	Slug      string     `json:"slug" bson:"slug"`
	FirstSeen time.Time  `json:"first_seen" bson:"first_seen"`
}
