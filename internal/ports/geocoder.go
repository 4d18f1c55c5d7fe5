package ports

import (
	"context"
	"mission-planner-service/internal/domain"
)

// Contract for resolving a place name to coordinates, scoped to a country.
type Geocoder interface {
	Geocode(ctx context.Context, query string, countryHint string) (domain.Coordinates, error)
}
