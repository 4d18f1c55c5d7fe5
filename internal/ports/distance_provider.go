package ports

import (
	"context"
	"mission-planner-service/internal/domain"
)

// Contract for single-leg routing, used to repair legs the matrix left empty.
type RouteProvider interface {
	// Return travel distance and estimated duration from a to b.
	Route(ctx context.Context, a, b domain.Coordinates) (domain.Segment, error)
}
