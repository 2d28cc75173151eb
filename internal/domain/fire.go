package domain

import (
	"math"
	"slices"
	"time"
)

// AllCountries is the country-filter sentinel meaning "no restriction".
const AllCountries = "All"

// FireRecord is one row of the historical wildfire catalog.
type FireRecord struct {
	Name         string    `json:"name"`
	Country      string    `json:"country"`
	StartDate    time.Time `json:"start_date"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	IntensityFRP float64   `json:"intensity_frp"` // fire radiative power, MW
}

// FilterSelection is the user's country and minimum-intensity choice.
type FilterSelection struct {
	Countries    []string
	MinIntensity float64
}

// DefaultSelection selects every country at the given intensity floor.
func DefaultSelection(minIntensity float64) FilterSelection {
	return FilterSelection{Countries: []string{AllCountries}, MinIntensity: minIntensity}
}

// matchesCountry reports whether the selection admits the given country.
// An empty selection admits nothing.
func (s FilterSelection) matchesCountry(country string) bool {
	for _, c := range s.Countries {
		if c == AllCountries || c == country {
			return true
		}
	}
	return false
}

// FilterFires returns the fires whose country is selected (or "All" is
// selected) and whose intensity is at least the selection minimum.
// The input slice is not modified.
func FilterFires(fires []FireRecord, sel FilterSelection) []FireRecord {
	out := make([]FireRecord, 0, len(fires))
	for _, f := range fires {
		if !sel.matchesCountry(f.Country) {
			continue
		}
		if f.IntensityFRP < sel.MinIntensity {
			continue
		}
		out = append(out, f)
	}
	return out
}

// CountryOptions lists the multiselect choices: the "All" sentinel followed
// by the catalog's distinct countries in sorted order.
func CountryOptions(fires []FireRecord) []string {
	seen := make(map[string]struct{}, len(fires))
	countries := make([]string, 0, len(fires))
	for _, f := range fires {
		if _, ok := seen[f.Country]; ok {
			continue
		}
		seen[f.Country] = struct{}{}
		countries = append(countries, f.Country)
	}
	slices.Sort(countries)
	return append([]string{AllCountries}, countries...)
}

// IntensityBounds returns whole-number slider bounds for the catalog's
// intensity range. Both bounds truncate toward zero. ok is false for an
// empty catalog.
func IntensityBounds(fires []FireRecord) (lo, hi int, ok bool) {
	if len(fires) == 0 {
		return 0, 0, false
	}
	minFRP, maxFRP := fires[0].IntensityFRP, fires[0].IntensityFRP
	for _, f := range fires[1:] {
		minFRP = math.Min(minFRP, f.IntensityFRP)
		maxFRP = math.Max(maxFRP, f.IntensityFRP)
	}
	return int(minFRP), int(maxFRP), true
}
