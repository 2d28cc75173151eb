package domain

import (
	"context"
	"time"
)

// StatusOK is the WAQI status token for a successful feed response.
const StatusOK = "ok"

// Snapshot is one point-in-time air-quality reading for a location.
type Snapshot struct {
	Location   string    `json:"location"`
	PM25       *float64  `json:"pm25,omitempty"`        // µg/m³; nil when the station reports none
	StationAQI *int      `json:"station_aqi,omitempty"` // AQI as published by the station
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ObservedAt string    `json:"observed_at,omitempty"` // station-local timestamp, verbatim
	FetchedAt  time.Time `json:"fetched_at"`
}

// ForecastDay is one day of the PM2.5 forecast.
// Min <= Avg <= Max is assumed from upstream and not checked.
type ForecastDay struct {
	Day time.Time `json:"day"`
	Avg float64   `json:"avg"`
	Min float64   `json:"min"`
	Max float64   `json:"max"`
}

// Reading is the parsed result of one feed request.
// When Status is not StatusOK, Snapshot is nil and Forecast is empty.
type Reading struct {
	Status   string        `json:"status"`
	Snapshot *Snapshot     `json:"snapshot,omitempty"`
	Forecast []ForecastDay `json:"forecast,omitempty"`
}

// OK reports whether the upstream accepted the location.
func (r Reading) OK() bool {
	return r.Status == StatusOK
}

// Empty reports whether the reading carries no data to display.
func (r Reading) Empty() bool {
	return r.Snapshot == nil && len(r.Forecast) == 0
}

// AirQualitySource fetches the live reading for a location.
type AirQualitySource interface {
	// Fetch returns the upstream reading. A non-"ok" status is reported in
	// Reading.Status with a nil error; err is reserved for transport,
	// HTTP, and decoding failures.
	Fetch(ctx context.Context, location string) (Reading, error)
}
