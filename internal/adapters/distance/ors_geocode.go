package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"net/http"
	"strings"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves a place name with /geocode/search, restricted to countryHint.
func (o *ORSProvider) Geocode(
	ctx context.Context,
	query string,
	countryHint string,
) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	text := strings.Join(strings.Fields(query), " ")
	if text == "" {
		return domain.Coordinates{}, errors.New("ors geocode: empty query")
	}

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", text)
		if countryHint != "" {
			q.Set("boundary.country", strings.ToUpper(countryHint))
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: %w", text, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors geocode: decode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("ors geocode: no results for %q", text)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("ors geocode: invalid coordinate format for %q", text)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
