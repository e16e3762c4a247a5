package leak

import (
	"context"
	"strings"
	"unicode"
)

// Checker reports whether a digital copy of a film is already circulating.
type Checker interface {
	Leaked(ctx context.Context, imdbID string) (bool, error)
}

// Nop never reports a leak. Used when leak checks are switched off.
type Nop struct{}

func (Nop) Leaked(ctx context.Context, imdbID string) (bool, error) {
	return false, nil
}

// lowQualityTags mark theatre recordings, which do not count as a leak.
var lowQualityTags = map[string]bool{
	"cam":      true,
	"hdcam":    true,
	"camrip":   true,
	"ts":       true,
	"hdts":     true,
	"telesync": true,
	"tc":       true,
	"telecine": true,
}

// isLowQuality reports whether a release name carries a recording tag.
func isLowQuality(name string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if lowQualityTags[tok] {
			return true
		}
	}
	return false
}
