package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"net/http"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Matrix retrieves the full N x N duration/distance matrix from /v2/matrix.
func (o *ORSProvider) Matrix(ctx context.Context, points []domain.Coordinates) (_ domain.Matrix, err error) {
	defer obs.Time(ctx, "ors.Matrix")(&err)

	n := len(points)
	if n == 0 {
		return domain.NewMatrix(0), nil
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, n)
	for _, c := range points {
		locations = append(locations, c.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return domain.Matrix{}, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		return o.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Matrix{}, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return domain.Matrix{}, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != n || len(mr.Durations) != n {
		return domain.Matrix{}, fmt.Errorf(
			"expected %d rows; got distances=%d durations=%d",
			n, len(mr.Distances), len(mr.Durations),
		)
	}

	m := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		if len(mr.Distances[i]) != n || len(mr.Durations[i]) != n {
			return domain.Matrix{}, fmt.Errorf("row %d: expected %d columns", i, n)
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			metersPtr, secondsPtr := mr.Distances[i][j], mr.Durations[i][j]
			// ORS returns null for unroutable pairs; leave them zero for repair.
			if metersPtr == nil || secondsPtr == nil {
				continue
			}
			m.Distances[i][j] = int(math.Round(*metersPtr))
			m.Durations[i][j] = int(math.Round(*secondsPtr))
		}
	}

	return m, nil
}
