package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/geo"
	"mission-planner-service/internal/ports"
)

const (
	floorLegMeters  = 1000
	floorLegSeconds = 60
)

// SegmentRepairer heals legs with missing distance or duration.
type SegmentRepairer struct {
	Router   ports.RouteProvider
	SpeedKmh float64
}

// RepairSegments returns a copy of segments where every missing leg was
// replaced by a routed leg, a geometric estimate, or the minimum floor, in
// that order. coords must be aligned with the ordered sites.
func (r SegmentRepairer) RepairSegments(ctx context.Context, coords []domain.Coordinates, segments []domain.Segment) ([]domain.Segment, error) {
	if len(coords) != len(segments)+1 {
		return nil, fmt.Errorf("repair segments: %d coordinates for %d segments", len(coords), len(segments))
	}

	out := make([]domain.Segment, len(segments))
	for i, seg := range segments {
		if !seg.Missing() {
			out[i] = seg
			continue
		}

		a, b := coords[i], coords[i+1]
		if r.Router != nil {
			routed, err := r.Router.Route(ctx, a, b)
			if err == nil && !routed.Missing() {
				out[i] = routed
				continue
			}
			log.Printf("op=segment.repair leg=%d route_err=%v", i, err)
		}

		out[i] = estimateLeg(a, b, r.SpeedKmh)
	}
	return out, nil
}

// estimateLeg is the geometric estimate, floored for coincident points.
func estimateLeg(a, b domain.Coordinates, speedKmh float64) domain.Segment {
	if speedKmh <= 0 {
		speedKmh = geo.DefaultAverageSpeedKmh
	}
	seg := geo.EstimateSegment(a, b, speedKmh)
	if !seg.Missing() {
		return seg
	}
	return floorLeg(speedKmh)
}

func floorLeg(speedKmh float64) domain.Segment {
	if speedKmh <= 0 {
		speedKmh = geo.DefaultAverageSpeedKmh
	}
	secs := int(math.Round(floorLegMeters / 1000 / speedKmh * 3600))
	return domain.Segment{
		DistanceMeters:  floorLegMeters,
		DurationSeconds: max(secs, floorLegSeconds),
	}
}
