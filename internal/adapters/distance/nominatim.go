package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NominatimGeocoder is the secondary geocoder, backed by OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	client  retryingClient
	baseURL string
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatimGeocoder(baseURL, userAgent string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "mission-planner-service/1.0"
	}
	return &NominatimGeocoder{
		client: newRetryingClient(20*time.Second, func(h http.Header) {
			// Nominatim usage policy requires an identifying User-Agent.
			h.Set("User-Agent", userAgent)
		}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string, countryHint string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)

	text := strings.Join(strings.Fields(query), " ")
	if text == "" {
		return domain.Coordinates{}, errors.New("nominatim geocode: empty query")
	}

	endpoint := g.baseURL + "/search"

	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("q", text)
		q.Set("format", "json")
		q.Set("limit", "1")
		if countryHint != "" {
			q.Set("countrycodes", strings.ToLower(countryHint))
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim geocode %q: %w", text, err)
	}
	defer resp.Body.Close()

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("nominatim geocode: no results for %q", text)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim geocode: parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim geocode: parse lon %q: %w", results[0].Lon, err)
	}

	return domain.Coordinates{Lon: lon, Lat: lat}, nil
}
