package distance

import (
	"context"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/geo"
)

// GeometricProvider estimates legs from great-circle distance. It never fails.
type GeometricProvider struct {
	SpeedKmh float64
}

func NewGeometricProvider(speedKmh float64) *GeometricProvider {
	if speedKmh <= 0 {
		speedKmh = geo.DefaultAverageSpeedKmh
	}
	return &GeometricProvider{SpeedKmh: speedKmh}
}

func (g *GeometricProvider) Matrix(_ context.Context, points []domain.Coordinates) (domain.Matrix, error) {
	return geo.EstimateMatrix(points, g.SpeedKmh), nil
}

func (g *GeometricProvider) Route(_ context.Context, a, b domain.Coordinates) (domain.Segment, error) {
	return geo.EstimateSegment(a, b, g.SpeedKmh), nil
}
