package distance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mission-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestORS(t *testing.T, h http.HandlerFunc) *ORSProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	p, err := NewORSProvider("test-key", WithORSBaseURL(srv.URL))
	require.NoError(t, err)
	p.client.backoff = time.Millisecond
	return p
}

var (
	dakar = domain.Coordinates{Lon: -17.4467, Lat: 14.6928}
	thies = domain.Coordinates{Lon: -16.9359, Lat: 14.7910}
)

func TestORSMatrixPreservesAsymmetry(t *testing.T) {
	p := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/matrix/driving-car", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		var req matrixRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Locations, 2)

		_, _ = w.Write([]byte(`{"durations":[[0,3600.4],[3900.6,0]],"distances":[[0,70000.2],[71000,0]]}`))
	})

	m, err := p.Matrix(context.Background(), []domain.Coordinates{dakar, thies})
	require.NoError(t, err)
	assert.Equal(t, 3600, m.Durations[0][1])
	assert.Equal(t, 3901, m.Durations[1][0])
	assert.Equal(t, 70000, m.Distances[0][1])
	assert.Equal(t, 71000, m.Distances[1][0])
}

func TestORSMatrixNullCellsLeftForRepair(t *testing.T) {
	p := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"durations":[[0,null],[10,0]],"distances":[[0,null],[20,0]]}`))
	})

	m, err := p.Matrix(context.Background(), []domain.Coordinates{dakar, thies})
	require.NoError(t, err)
	assert.True(t, m.Segment(0, 1).Missing())
	assert.False(t, m.Segment(1, 0).Missing())
}

func TestORSRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-16.9359,14.791]}}]}`))
	})

	c, err := p.Geocode(context.Background(), "Thiès", "sn")
	require.NoError(t, err)
	assert.Equal(t, thies, c)
	assert.Equal(t, int32(3), calls.Load())
}

func TestORSGivesUpAfterThreeAttempts(t *testing.T) {
	var calls atomic.Int32
	p := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Geocode(context.Background(), "Thiès", "SN")
	require.Error(t, err)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestORSInvalidCredentialsAreTerminal(t *testing.T) {
	var calls atomic.Int32
	p := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Access to this API has been disallowed"}`))
	})

	_, err := p.Matrix(context.Background(), []domain.Coordinates{dakar, thies})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestORSGeocodeScopesCountry(t *testing.T) {
	p := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "Saint-Louis", r.URL.Query().Get("text"))
		assert.Equal(t, "SN", r.URL.Query().Get("boundary.country"))
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	_, err := p.Geocode(context.Background(), "  Saint-Louis ", "sn")
	assert.Error(t, err)
}

func TestORSRoute(t *testing.T) {
	p := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		assert.Equal(t, "-17.446700,14.692800", r.URL.Query().Get("start"))
		_, _ = w.Write([]byte(`{"features":[{"properties":{"summary":{"distance":71234.6,"duration":4020.2}}}]}`))
	})

	s, err := p.Route(context.Background(), dakar, thies)
	require.NoError(t, err)
	assert.Equal(t, domain.Segment{DistanceMeters: 71235, DurationSeconds: 4020}, s)
}

func TestNewORSProviderRequiresKey(t *testing.T) {
	_, err := NewORSProvider("")
	assert.Error(t, err)
}
