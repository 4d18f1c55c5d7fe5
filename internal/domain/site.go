package domain

import (
	"math"
	"strings"
)

// Site is a place the mission visits.
//
// VisitDurationHours is zero for pure waypoints such as the synthetic start
// and return nodes. OvernightAllowed defaults to true at the API boundary.
type Site struct {
	City               string  `json:"city"`
	Kind               string  `json:"kind"`
	Activity           string  `json:"activity"`
	VisitDurationHours float64 `json:"visit_duration_hours"`
	MayContinueNextDay bool    `json:"may_continue_next_day"`
	OvernightAllowed   bool    `json:"overnight_allowed"`
}

const KindBase = "Base"

// BaseNode builds the synthetic zero-duration start/return node for a base city.
func BaseNode(city string) Site {
	return Site{
		City:             strings.TrimSpace(city),
		Kind:             KindBase,
		OvernightAllowed: true,
	}
}

// ReturnNode builds the zero-duration return marker that closes a mission
// without a base, reusing the first site's city and lodging flag.
func ReturnNode(first Site) Site {
	return Site{
		City:             first.City,
		Kind:             first.Kind,
		OvernightAllowed: first.OvernightAllowed,
	}
}

// IsWaypoint reports whether the site has no on-site work.
func (s Site) IsWaypoint() bool { return s.VisitDurationHours <= 0 }

// ValidateSites checks every row and reports all offending rows at once.
func ValidateSites(sites []Site) error {
	if len(sites) == 0 {
		return &InvalidSiteData{Rows: []SiteError{{Row: 0, Field: "sites", Reason: "at least one site is required"}}}
	}

	var rows []SiteError
	for i, s := range sites {
		if strings.TrimSpace(s.City) == "" {
			rows = append(rows, SiteError{Row: i + 1, Field: "city", Reason: "city must be non-empty"})
		}

		d := s.VisitDurationHours
		switch {
		case math.IsNaN(d) || math.IsInf(d, 0):
			rows = append(rows, SiteError{Row: i + 1, Field: "visit_duration_hours", Reason: "must be a finite number"})
		case d < 0:
			rows = append(rows, SiteError{Row: i + 1, Field: "visit_duration_hours", Reason: "must be >= 0"})
		}
	}

	if len(rows) > 0 {
		return &InvalidSiteData{Rows: rows}
	}
	return nil
}
