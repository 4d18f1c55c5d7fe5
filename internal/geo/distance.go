package geo

import (
	"math"

	"mission-planner-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// RoadFactor corrects straight-line distance for road curvature.
const RoadFactor = 1.2

// DefaultAverageSpeedKmh is used when no speed is configured.
const DefaultAverageSpeedKmh = 60.0

func point(c domain.Coordinates) orb.Point { return orb.Point{c.Lon, c.Lat} }

// GreatCircleMeters returns the haversine distance between two coordinates.
func GreatCircleMeters(a, b domain.Coordinates) float64 {
	return geo.DistanceHaversine(point(a), point(b))
}

// EstimateSegment approximates a road leg from straight-line distance.
func EstimateSegment(a, b domain.Coordinates, speedKmh float64) domain.Segment {
	if speedKmh <= 0 {
		speedKmh = DefaultAverageSpeedKmh
	}

	meters := GreatCircleMeters(a, b) * RoadFactor
	seconds := meters / 1000 / speedKmh * 3600

	return domain.Segment{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(seconds)),
	}
}

// EstimateMatrix builds a full geometric matrix with a zero diagonal.
func EstimateMatrix(coords []domain.Coordinates, speedKmh float64) domain.Matrix {
	n := len(coords)
	m := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			s := EstimateSegment(coords[i], coords[j], speedKmh)
			m.Durations[i][j] = s.DurationSeconds
			m.Distances[i][j] = s.DistanceMeters
		}
	}
	return m
}
