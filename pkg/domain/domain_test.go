package domain

import (
	"testing"
	"time"
)

func TestStripParentheticals(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dune: Part Two (OV)", "Dune: Part Two"},
		{"Inside Out 2 (NL) (3D)", "Inside Out 2"},
		{"  Oppenheimer  ", "Oppenheimer"},
		{"(Preview) Alien: Romulus", "Alien: Romulus"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripParentheticals(tt.in); got != tt.want {
			t.Fatalf("StripParentheticals(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShowLookupTitlePrefersOriginal(t *testing.T) {
	s := Show{Title: "Binnenstebuiten 2 (NL)", OriginalTitle: "Inside Out 2 (OV)"}
	if got := s.LookupTitle(); got != "Inside Out 2" {
		t.Fatalf("LookupTitle() = %q", got)
	}

	s.OriginalTitle = "(OV)"
	if got := s.LookupTitle(); got != "Binnenstebuiten 2" {
		t.Fatalf("LookupTitle() fallback = %q", got)
	}
}

func TestShowReleaseYear(t *testing.T) {
	s := Show{ReleaseDates: []string{"2024-07-10", "2023-12-25", ""}}
	if got := s.FirstRelease(); got != "2023-12-25" {
		t.Fatalf("FirstRelease() = %q", got)
	}
	if got := s.ReleaseYear(); got != 2023 {
		t.Fatalf("ReleaseYear() = %d", got)
	}
	if got := (&Show{}).ReleaseYear(); got != 0 {
		t.Fatalf("ReleaseYear() without dates = %d", got)
	}
}

func TestSortByRating(t *testing.T) {
	shows := []Show{
		{Slug: "none", Title: "B"},
		{Slug: "low", Title: "C", Ratings: Ratings{IMDbRating: "6.1"}},
		{Slug: "high", Title: "D", Ratings: Ratings{IMDbRating: "8.4"}},
		{Slug: "none2", Title: "A"},
	}
	SortByRating(shows)

	want := []string{"high", "low", "none2", "none"}
	for i, slug := range want {
		if shows[i].Slug != slug {
			t.Fatalf("position %d = %s, want %s", i, shows[i].Slug, slug)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	aware, err := ParseTimestamp("2024-05-01T12:00:00+02:00")
	if err != nil {
		t.Fatalf("aware: %v", err)
	}
	if aware.Location() != time.UTC || aware.Hour() != 10 {
		t.Fatalf("aware = %v, want 10:00 UTC", aware)
	}

	naive, err := ParseTimestamp("2024-05-01T12:00:00.123456")
	if err != nil {
		t.Fatalf("naive: %v", err)
	}
	if naive.Location() != time.UTC || naive.Hour() != 12 {
		t.Fatalf("naive = %v, want 12:00 UTC", naive)
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatal("expected error for garbage timestamp")
	}
}

func TestBadge(t *testing.T) {
	today := "2024-06-10"
	tests := []struct {
		name string
		show Show
		want string
	}{
		{"leaked wins", Show{ReleaseDates: []string{"2024-06-01"}, Lifecycle: Lifecycle{IsLeaked: true, IsNew: true}}, BadgeLeaked},
		{"new release", Show{ReleaseDates: []string{"2024-06-01"}, Lifecycle: Lifecycle{IsNew: true}}, BadgeNew},
		{"presale", Show{ReleaseDates: []string{"2024-07-01"}, Bookable: true}, BadgePresale},
		{"soon", Show{ReleaseDates: []string{"2024-07-01"}}, BadgeSoon},
		{"now showing", Show{ReleaseDates: []string{"2024-05-01"}}, BadgeNowShowing},
	}
	for _, tt := range tests {
		if got := Badge(&tt.show, today); got != tt.want {
			t.Errorf("%s: Badge() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
