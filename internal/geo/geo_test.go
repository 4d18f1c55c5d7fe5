package geo

import (
	"os"
	"path/filepath"
	"testing"

	"mission-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "saint louis", Normalize("  Saint-Louis "))
	assert.Equal(t, "thies", Normalize("THIÈS"))
	assert.Equal(t, "kedougou", Normalize("Kédougou."))
	assert.Equal(t, "", Normalize("  \t "))
}

func TestOfflineTableLookup(t *testing.T) {
	tbl := NewOfflineTable(DefaultKnownLocations(), []domain.KnownLocation{{Name: "Thies", Lon: 1, Lat: 2}})

	c, ok := tbl.Lookup("thiès")
	require.True(t, ok)
	assert.Equal(t, domain.Coordinates{Lon: 1, Lat: 2}, c)

	_, ok = tbl.Lookup("Atlantis")
	assert.False(t, ok)

	var nilTable *OfflineTable
	_, ok = nilTable.Lookup("Dakar")
	assert.False(t, ok)
}

func TestEstimateMatrixDiagonalAndScale(t *testing.T) {
	tbl := NewOfflineTable(DefaultKnownLocations())
	dakar, _ := tbl.Lookup("Dakar")
	thies, _ := tbl.Lookup("Thiès")

	m := EstimateMatrix([]domain.Coordinates{dakar, thies}, 60)
	require.NoError(t, m.Validate(2))
	assert.Zero(t, m.Durations[0][0])
	assert.Zero(t, m.Distances[1][1])

	straight := GreatCircleMeters(dakar, thies)
	assert.InDelta(t, straight*RoadFactor, float64(m.Distances[0][1]), 1)
	// 60 km/h: seconds == meters * 0.06
	assert.InDelta(t, float64(m.Distances[0][1])*0.06, float64(m.Durations[0][1]), 1)
}

func TestInBounds(t *testing.T) {
	sn, ok := CountryBounds("sn")
	require.True(t, ok)

	assert.True(t, InBounds(sn, domain.Coordinates{Lon: -17.4467, Lat: 14.6928}))
	assert.False(t, InBounds(sn, domain.Coordinates{Lon: 2.35, Lat: 48.85}))
}

func TestLoadKnownLocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Linguère", "lon": -15.1167, "lat": 15.3953}]`), 0o600))

	locs, err := LoadKnownLocations(path)
	require.NoError(t, err)
	require.Len(t, locs, 1)

	c, ok := NewOfflineTable(locs).Lookup("linguere")
	require.True(t, ok)
	assert.InDelta(t, 15.3953, c.Lat, 1e-9)

	_, err = LoadKnownLocations(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = LoadKnownLocations(path)
	assert.Error(t, err)
}

func TestSeedFileParses(t *testing.T) {
	locs, err := LoadKnownLocations("../../data/seeds/known_locations.json")
	require.NoError(t, err)
	assert.NotEmpty(t, locs)
	for _, l := range locs {
		assert.NotEmpty(t, l.Name)
		assert.True(t, l.Lat > 12 && l.Lat < 17, l.Name)
	}
}
