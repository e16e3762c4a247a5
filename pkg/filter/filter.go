package filter

import (
	"context"
	"fmt"
	"strings"

	"showtime-cards/pkg/domain"
)

// Filter decides whether a show, identified by slug, stays in the run.
type Filter interface {
	ShouldKeep(ctx context.Context, slug string) (bool, error)
}

// Shows applies all filters to shows and returns the survivors in their
// original order.
func Shows(ctx context.Context, shows []domain.Show, filters ...Filter) ([]domain.Show, error) {
	filtered := make([]domain.Show, 0, len(shows))

	for _, show := range shows {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, show.Slug)
			if err != nil {
				return nil, fmt.Errorf("filter error for show %s: %w", show.Slug, err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, show)
		}
	}

	return filtered, nil
}

// BlankSlugFilter drops entries without a usable identity.
type BlankSlugFilter struct{}

// NewBlankSlugFilter creates a new blank slug filter
func NewBlankSlugFilter() *BlankSlugFilter {
	return &BlankSlugFilter{}
}

// ShouldKeep returns false for empty or whitespace-only slugs
func (f *BlankSlugFilter) ShouldKeep(ctx context.Context, slug string) (bool, error) {
	return strings.TrimSpace(slug) != "", nil
}

// MembershipFilter keeps only slugs present in a set, typically the
// region-scoped listing.
type MembershipFilter struct {
	members map[string]bool
}

// NewMembershipFilter creates a filter over the given slugs
func NewMembershipFilter(slugs []string) *MembershipFilter {
	members := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		members[s] = true
	}
	return &MembershipFilter{members: members}
}

// ShouldKeep returns true if slug is in the set
func (f *MembershipFilter) ShouldKeep(ctx context.Context, slug string) (bool, error) {
	return f.members[slug], nil
}

// Len returns the number of slugs in the set.
func (f *MembershipFilter) Len() int {
	return len(f.members)
}

// ExcludeFilter drops slugs present in a set.
type ExcludeFilter struct {
	excluded map[string]bool
}

// NewExcludeFilter creates a new exclude filter
func NewExcludeFilter(excluded map[string]bool) *ExcludeFilter {
	return &ExcludeFilter{
		excluded: excluded,
	}
}

// ShouldKeep returns false if slug is in the excluded set
func (f *ExcludeFilter) ShouldKeep(ctx context.Context, slug string) (bool, error) {
	return !f.excluded[slug], nil
}
