package domain

// KnownLocation is a row of the offline city table.
type KnownLocation struct {
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

func (k KnownLocation) Coordinates() Coordinates { return Coordinates{Lon: k.Lon, Lat: k.Lat} }
