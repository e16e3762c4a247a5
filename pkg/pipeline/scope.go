package pipeline

import (
	"context"

	"showtime-cards/pkg/catalog"
	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/filter"
	"showtime-cards/pkg/logger"
)

// ApplyZone keeps exactly the catalog shows whose slug is in the zone
// listing, in catalog order, and copies the zone-scoped flags onto them.
// Extra filters can only narrow the result further.
func ApplyZone(ctx context.Context, shows []domain.Show, zone []catalog.ZoneShow, extra ...filter.Filter) ([]domain.Show, error) {
	bySlug := make(map[string]catalog.ZoneShow, len(zone))
	slugs := make([]string, 0, len(zone))
	for _, z := range zone {
		bySlug[z.Slug] = z
		slugs = append(slugs, z.Slug)
	}

	members := filter.NewMembershipFilter(slugs)
	filters := append([]filter.Filter{filter.NewBlankSlugFilter(), members}, extra...)
	kept, err := filter.Shows(ctx, shows, filters...)
	if err != nil {
		return nil, err
	}
	if missing := members.Len() - len(kept); missing > 0 && len(extra) == 0 {
		logger.Log.Debugf("%d zone slugs have no catalog entry", missing)
	}

	for i := range kept {
		z := bySlug[kept[i].Slug]
		kept[i].Kids = z.IsKids
		kept[i].Bookable = z.Bookable
		kept[i].ComingSoon = z.IsComingSoon
		kept[i].Tags = append([]string(nil), z.Tags...)
		kept[i].ShowCount = z.Count()
	}
	return kept, nil
}
