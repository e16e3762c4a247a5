package domain

// Badge names shown on a card, in priority order.
const (
	BadgeLeaked     = "leaked"
	BadgeNew        = "new"
	BadgePresale    = "presale"
	BadgeSoon       = "soon"
	BadgeNowShowing = "now-showing"
)

// Badge picks the single badge for a show. today is YYYY-MM-DD.
func Badge(s *Show, today string) string {
	release := s.FirstRelease()
	released := release != "" && release <= today

	switch {
	case s.Lifecycle.IsLeaked:
		return BadgeLeaked
	case s.Lifecycle.IsNew && released:
		return BadgeNew
	case s.Bookable && !released:
		return BadgePresale
	case s.ComingSoon || (release != "" && !released):
		return BadgeSoon
	default:
		return BadgeNowShowing
	}
}
