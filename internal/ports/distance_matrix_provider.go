package ports

import (
	"context"
	"mission-planner-service/internal/domain"
)

// Contract for providers returning a full pairwise duration/distance matrix.
// Implementations must preserve asymmetry.
type MatrixProvider interface {
	Matrix(ctx context.Context, points []domain.Coordinates) (domain.Matrix, error)
}
