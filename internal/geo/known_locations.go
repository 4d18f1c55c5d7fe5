package geo

import (
	"encoding/json"
	"fmt"
	"mission-planner-service/internal/domain"
	"os"
)

// OfflineTable maps normalized city names to coordinates.
type OfflineTable struct {
	m map[string]domain.Coordinates
}

// NewOfflineTable merges location lists; later lists override earlier ones.
func NewOfflineTable(lists ...[]domain.KnownLocation) *OfflineTable {
	t := &OfflineTable{m: make(map[string]domain.Coordinates)}
	for _, l := range lists {
		for _, k := range l {
			key := Normalize(k.Name)
			if key == "" {
				continue
			}
			t.m[key] = k.Coordinates()
		}
	}
	return t
}

func (t *OfflineTable) Lookup(city string) (domain.Coordinates, bool) {
	if t == nil {
		return domain.Coordinates{}, false
	}
	c, ok := t.m[Normalize(city)]
	return c, ok
}

func (t *OfflineTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.m)
}

// LoadKnownLocations reads a JSON array of {name, lon, lat}.
func LoadKnownLocations(path string) ([]domain.KnownLocation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load known locations: read %q: %w", path, err)
	}

	var out []domain.KnownLocation
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("load known locations: parse %q: %w", path, err)
	}
	return out, nil
}

// DefaultKnownLocations lists the major cities resolved without a network call.
func DefaultKnownLocations() []domain.KnownLocation {
	return []domain.KnownLocation{
		{Name: "Dakar", Lon: -17.4467, Lat: 14.6928},
		{Name: "Rufisque", Lon: -17.2667, Lat: 14.7167},
		{Name: "Thiès", Lon: -16.9359, Lat: 14.7910},
		{Name: "Mbour", Lon: -16.9667, Lat: 14.4167},
		{Name: "Saint-Louis", Lon: -16.4896, Lat: 16.0179},
		{Name: "Louga", Lon: -16.2286, Lat: 15.6144},
		{Name: "Richard-Toll", Lon: -15.7008, Lat: 16.4625},
		{Name: "Podor", Lon: -14.9594, Lat: 16.6522},
		{Name: "Matam", Lon: -13.2554, Lat: 15.6559},
		{Name: "Diourbel", Lon: -16.2314, Lat: 14.6550},
		{Name: "Touba", Lon: -15.8833, Lat: 14.8500},
		{Name: "Fatick", Lon: -16.4041, Lat: 14.3390},
		{Name: "Kaolack", Lon: -16.0758, Lat: 14.1652},
		{Name: "Kaffrine", Lon: -15.5508, Lat: 14.1059},
		{Name: "Tambacounda", Lon: -13.6673, Lat: 13.7707},
		{Name: "Kédougou", Lon: -12.1743, Lat: 12.5579},
		{Name: "Kolda", Lon: -14.9410, Lat: 12.8940},
		{Name: "Sédhiou", Lon: -15.5569, Lat: 12.7081},
		{Name: "Ziguinchor", Lon: -16.2719, Lat: 12.5681},
	}
}
