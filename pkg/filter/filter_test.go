package filter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"showtime-cards/pkg/domain"
)

func slugs(shows []domain.Show) []string {
	out := make([]string, len(shows))
	for i, s := range shows {
		out[i] = s.Slug
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestShows_MembershipIsExactIntersection(t *testing.T) {
	shows := []domain.Show{{Slug: "a"}, {Slug: "b"}, {Slug: "c"}, {Slug: "d"}}
	// "x" is in the region but not in the catalog and must not appear.
	f := NewMembershipFilter([]string{"c", "a", "x", "a"})
	if f.Len() != 3 {
		t.Errorf("expected 3 distinct members, got %d", f.Len())
	}

	got, err := Shows(context.Background(), shows, f)
	if err != nil {
		t.Fatalf("Shows returned error: %v", err)
	}
	if want := []string{"a", "c"}; !equal(slugs(got), want) {
		t.Errorf("expected %v, got %v", want, slugs(got))
	}
}

func TestShows_EmptyRegionKeepsNothing(t *testing.T) {
	shows := []domain.Show{{Slug: "a"}, {Slug: "b"}}
	got, err := Shows(context.Background(), shows, NewMembershipFilter(nil))
	if err != nil {
		t.Fatalf("Shows returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no shows, got %v", slugs(got))
	}
}

func TestShows_CombinesFilters(t *testing.T) {
	shows := []domain.Show{{Slug: ""}, {Slug: "a"}, {Slug: "b"}, {Slug: "c"}}
	got, err := Shows(context.Background(), shows,
		NewBlankSlugFilter(),
		NewExcludeFilter(map[string]bool{"b": true}),
	)
	if err != nil {
		t.Fatalf("Shows returned error: %v", err)
	}
	if want := []string{"a", "c"}; !equal(slugs(got), want) {
		t.Errorf("expected %v, got %v", want, slugs(got))
	}
}

type failingFilter struct{}

func (failingFilter) ShouldKeep(ctx context.Context, slug string) (bool, error) {
	return false, errors.New("boom")
}

func TestShows_PropagatesFilterError(t *testing.T) {
	_, err := Shows(context.Background(), []domain.Show{{Slug: "a"}}, failingFilter{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadSlugFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.txt")
	content := "# hidden shows\nmarathon-night,\n\n  private-screening  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSlugFile(path)
	if err != nil {
		t.Fatalf("LoadSlugFile: %v", err)
	}
	if len(got) != 2 || !got["marathon-night"] || !got["private-screening"] {
		t.Errorf("unexpected slugs %v", got)
	}

	if _, err := LoadSlugFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
