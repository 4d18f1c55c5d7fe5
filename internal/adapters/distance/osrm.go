package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"net/http"
	"strings"
	"time"
)

// maxOSRMCoordinates is the maximum number of coordinates the public OSRM API accepts.
const maxOSRMCoordinates = 80

// OSRMProvider implements ports.MatrixProvider and ports.RouteProvider over
// the OSRM table and route services.
type OSRMProvider struct {
	client  retryingClient
	baseURL string
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func NewOSRMProvider(baseURL string) *OSRMProvider {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMProvider{
		client:  newRetryingClient(30*time.Second, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func osrmCoords(points []domain.Coordinates) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%.6f,%.6f", p.Lon, p.Lat)
	}
	return strings.Join(parts, ";")
}

// Matrix fetches the full table in one request.
func (c *OSRMProvider) Matrix(ctx context.Context, points []domain.Coordinates) (_ domain.Matrix, err error) {
	defer obs.Time(ctx, "osrm.Matrix")(&err)

	n := len(points)
	if n == 0 {
		return domain.NewMatrix(0), nil
	}
	if n > maxOSRMCoordinates {
		return domain.Matrix{}, fmt.Errorf("osrm table: %d points exceeds limit of %d", n, maxOSRMCoordinates)
	}

	queryURL := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance,duration", c.baseURL, osrmCoords(points))

	resp, err := c.client.doWithRetry(ctx, func() (*http.Request, error) {
		return c.client.newRequest(ctx, http.MethodGet, queryURL, nil)
	})
	if err != nil {
		return domain.Matrix{}, fmt.Errorf("osrm table request failed: %w", err)
	}
	defer resp.Body.Close()

	var tr osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return domain.Matrix{}, fmt.Errorf("decode osrm table response: %w", err)
	}
	if tr.Code != "Ok" {
		return domain.Matrix{}, fmt.Errorf("osrm table: code %s", tr.Code)
	}
	if len(tr.Distances) != n || len(tr.Durations) != n {
		return domain.Matrix{}, fmt.Errorf("osrm table: expected %d rows, got distances=%d durations=%d", n, len(tr.Distances), len(tr.Durations))
	}

	log.Printf("[OSRM] Distance matrix response: points=%d code=%s", n, tr.Code)

	m := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		if len(tr.Distances[i]) != n || len(tr.Durations[i]) != n {
			return domain.Matrix{}, fmt.Errorf("osrm table: row %d: expected %d columns", i, n)
		}
		for j := 0; j < n; j++ {
			if i == j || tr.Distances[i][j] == nil || tr.Durations[i][j] == nil {
				continue
			}
			m.Distances[i][j] = int(math.Round(*tr.Distances[i][j]))
			m.Durations[i][j] = int(math.Round(*tr.Durations[i][j]))
		}
	}

	return m, nil
}

// Route fetches a single leg from the route service.
func (c *OSRMProvider) Route(ctx context.Context, a, b domain.Coordinates) (_ domain.Segment, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	queryURL := fmt.Sprintf("%s/route/v1/driving/%s?overview=false", c.baseURL, osrmCoords([]domain.Coordinates{a, b}))

	resp, err := c.client.doWithRetry(ctx, func() (*http.Request, error) {
		return c.client.newRequest(ctx, http.MethodGet, queryURL, nil)
	})
	if err != nil {
		return domain.Segment{}, fmt.Errorf("osrm route request failed: %w", err)
	}
	defer resp.Body.Close()

	var rr osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return domain.Segment{}, fmt.Errorf("decode osrm route response: %w", err)
	}
	if rr.Code != "Ok" || len(rr.Routes) == 0 {
		return domain.Segment{}, fmt.Errorf("osrm route: code %s, routes=%d", rr.Code, len(rr.Routes))
	}

	return domain.Segment{
		DistanceMeters:  int(math.Round(rr.Routes[0].Distance)),
		DurationSeconds: int(math.Round(rr.Routes[0].Duration)),
	}, nil
}
