package services

import "math"

type FuelProfile struct {
	LitersPer100Km float64 `json:"liters_per_100km" yaml:"liters_per_100km"`
	PricePerLiter  float64 `json:"price_per_liter" yaml:"price_per_liter"`
	Currency       string  `json:"currency" yaml:"currency"`
	CO2KgPerLiter  float64 `json:"co2_kg_per_liter" yaml:"co2_kg_per_liter"`
	// TreeKgPerYear is the CO2 one tree absorbs in a year.
	TreeKgPerYear float64 `json:"tree_kg_per_year" yaml:"tree_kg_per_year"`
}

// DefaultFuelProfile is a diesel field vehicle priced in CFA francs.
func DefaultFuelProfile() FuelProfile {
	return FuelProfile{
		LitersPer100Km: 8.5,
		PricePerLiter:  755,
		Currency:       "XOF",
		CO2KgPerLiter:  2.68,
		TreeKgPerYear:  22,
	}
}

type FuelEstimate struct {
	Liters       float64 `json:"liters"`
	Cost         float64 `json:"cost"`
	Currency     string  `json:"currency"`
	CO2Kg        float64 `json:"co2_kg"`
	TreesPerYear float64 `json:"trees_per_year"`
}

// EstimateFuel derives consumption, cost and emissions from distance.
// Zero profile fields take their defaults.
func EstimateFuel(totalKm float64, p FuelProfile) FuelEstimate {
	d := DefaultFuelProfile()
	if p.LitersPer100Km <= 0 {
		p.LitersPer100Km = d.LitersPer100Km
	}
	if p.PricePerLiter <= 0 {
		p.PricePerLiter = d.PricePerLiter
	}
	if p.Currency == "" {
		p.Currency = d.Currency
	}
	if p.CO2KgPerLiter <= 0 {
		p.CO2KgPerLiter = d.CO2KgPerLiter
	}
	if p.TreeKgPerYear <= 0 {
		p.TreeKgPerYear = d.TreeKgPerYear
	}
	if totalKm < 0 || math.IsNaN(totalKm) {
		totalKm = 0
	}

	liters := totalKm * p.LitersPer100Km / 100
	co2 := liters * p.CO2KgPerLiter
	return FuelEstimate{
		Liters:       liters,
		Cost:         liters * p.PricePerLiter,
		Currency:     p.Currency,
		CO2Kg:        co2,
		TreesPerYear: co2 / p.TreeKgPerYear,
	}
}
