package geo

import (
	"strings"

	"mission-planner-service/internal/domain"

	"github.com/paulmach/orb"
)

var countryBounds = map[string]orb.Bound{
	"SN": {Min: orb.Point{-17.6, 12.2}, Max: orb.Point{-11.3, 16.8}},
	"GM": {Min: orb.Point{-16.9, 13.0}, Max: orb.Point{-13.7, 13.9}},
	"ML": {Min: orb.Point{-12.3, 10.1}, Max: orb.Point{4.3, 25.0}},
	"MR": {Min: orb.Point{-17.1, 14.7}, Max: orb.Point{-4.8, 27.3}},
}

// CountryBounds returns a padded bounding box for an ISO country code.
func CountryBounds(code string) (orb.Bound, bool) {
	b, ok := countryBounds[strings.ToUpper(strings.TrimSpace(code))]
	return b, ok
}

// InBounds reports whether c lies inside b. A zero bound accepts everything.
func InBounds(b orb.Bound, c domain.Coordinates) bool {
	if b.IsZero() || b.IsEmpty() {
		return true
	}
	return b.Contains(point(c))
}
