package ports

import (
	"context"
	"mission-planner-service/internal/domain"
)

// Port: a boundary for retrieving seeded offline city coordinates.
type KnownLocationRepository interface {
	ListKnownLocations(ctx context.Context) ([]domain.KnownLocation, error)
}
