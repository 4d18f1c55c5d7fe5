package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"net/http"
	"strconv"
)

type directionsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

func lonLat(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}

// Route fetches a single leg from /v2/directions.
func (o *ORSProvider) Route(ctx context.Context, a, b domain.Coordinates) (_ domain.Segment, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/geo+json, application/json")
		q := req.URL.Query()
		q.Set("start", lonLat(a))
		q.Set("end", lonLat(b))
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Segment{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.Segment{}, fmt.Errorf("decode directions response: %w", err)
	}
	if len(dr.Features) == 0 {
		return domain.Segment{}, fmt.Errorf("directions: no route %s -> %s", lonLat(a), lonLat(b))
	}

	s := dr.Features[0].Properties.Summary
	return domain.Segment{
		DistanceMeters:  int(math.Round(s.Distance)),
		DurationSeconds: int(math.Round(s.Duration)),
	}, nil
}
