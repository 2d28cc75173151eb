package dashboard

import (
	"fmt"
	"time"

	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
)

// Notice sections.
const (
	SectionSidebar    = "sidebar"
	SectionMain       = "main"
	SectionFires      = "fires"
	SectionAirQuality = "air_quality"
	SectionForecast   = "forecast"
)

// Notice levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Fire map presentation constants.
const (
	FireMapZoom       = 2
	FireMapTiles      = "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png"
	FireMarkerRadius  = 5
	FireMarkerColor   = "orangered"
	FireMarkerFill    = "red"
	PointMapZoom      = 8
	GaugeTitle        = "Live AQI (PM2.5)"
	GaugeAxisMax      = 500
	forecastTitleTmpl = "7-Day PM2.5 Forecast – %s"
)

// FireMapCenter is the initial [lat, lon] of the fire map.
var FireMapCenter = [2]float64{20, 0}

// Query is the user's input for one render.
type Query struct {
	City string
	// Countries is the multiselect value. When Submitted is false and
	// Countries is empty, the default selection ("All") applies.
	Countries []string
	// MinIntensity is the slider value; nil selects the catalog minimum.
	MinIntensity *float64
	// Submitted marks a query coming from the filter form, where an empty
	// country list is an explicit empty selection.
	Submitted bool
}

// Notice is a user-visible message attached to a page section.
type Notice struct {
	Section string `json:"section"`
	Level   string `json:"level"`
	Text    string `json:"text"`
}

// Sidebar holds the control state.
type Sidebar struct {
	City              string   `json:"city"`
	CountryOptions    []string `json:"country_options"`
	SelectedCountries []string `json:"selected_countries"`
	IntensityMin      int      `json:"intensity_min"`
	IntensityMax      int      `json:"intensity_max"`
	IntensityValue    int      `json:"intensity_value"`
	CatalogLoaded     bool     `json:"catalog_loaded"`
}

// FireMarker is one circle on the fire map.
type FireMarker struct {
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	StartDate    string  `json:"start_date"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	IntensityFRP float64 `json:"intensity_frp"`
	Radius       int     `json:"radius"`
	Color        string  `json:"color"`
	FillColor    string  `json:"fill_color"`
}

// Popup returns the marker popup text.
func (m FireMarker) Popup() string {
	return fmt.Sprintf("%s (%s)\nStart: %s\nFRP: %g", m.Name, m.Country, m.StartDate, m.IntensityFRP)
}

// FireMap is the world map of filtered fires.
type FireMap struct {
	Center  [2]float64   `json:"center"`
	Zoom    int          `json:"zoom"`
	Tiles   string       `json:"tiles"`
	Markers []FireMarker `json:"markers"`
}

// GaugeStep is one coloured band on the gauge axis.
type GaugeStep struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Color string `json:"color"`
}

// Gauge is the live AQI indicator.
type Gauge struct {
	Title   string      `json:"title"`
	Value   int         `json:"value"`
	AxisMax int         `json:"axis_max"`
	Steps   []GaugeStep `json:"steps"`
}

// AirQualityPanel is the live reading with its derived AQI.
type AirQualityPanel struct {
	Location   string           `json:"location"`
	PM25       *float64         `json:"pm25,omitempty"`
	StationAQI *int             `json:"station_aqi,omitempty"`
	AQI        domain.AQIResult `json:"aqi"`
	Color      string           `json:"color"`
	Gauge      Gauge            `json:"gauge"`
	Point      [2]float64       `json:"point"`
	Zoom       int              `json:"zoom"`
	ObservedAt string           `json:"observed_at,omitempty"`
}

// ForecastChart is the banded daily forecast.
type ForecastChart struct {
	Title string    `json:"title"`
	Days  []string  `json:"days"`
	Avg   []float64 `json:"avg"`
	Min   []float64 `json:"min"`
	Max   []float64 `json:"max"`
}

// View is everything the page template needs for one render.
type View struct {
	Sidebar    Sidebar              `json:"sidebar"`
	FireMap    FireMap              `json:"fire_map"`
	AirQuality *AirQualityPanel     `json:"air_quality,omitempty"`
	Forecast   *ForecastChart       `json:"forecast,omitempty"`
	Legend     []domain.LegendEntry `json:"legend"`
	Notices    []Notice             `json:"notices"`
	RenderedAt time.Time            `json:"rendered_at"`
}

// NoticesFor returns the notices attached to section, in order.
func (v View) NoticesFor(section string) []Notice {
	var out []Notice
	for _, n := range v.Notices {
		if n.Section == section {
			out = append(out, n)
		}
	}
	return out
}

// gaugeSteps colours the gauge axis by AQI band.
func gaugeSteps() []GaugeStep {
	return []GaugeStep{
		{0, 50, domain.CategoryGood.Color()},
		{51, 100, domain.CategoryModerate.Color()},
		{101, 150, domain.CategoryUnhealthyForSensitive.Color()},
		{151, 200, domain.CategoryUnhealthy.Color()},
		{201, 300, domain.CategoryVeryUnhealthy.Color()},
		{301, 500, domain.CategoryHazardous.Color()},
	}
}

// BuildView assembles the page from the catalog, the user's query and the
// air-quality outcome. It is pure: the same inputs give the same View.
func BuildView(fires []domain.FireRecord, catalogUnavailable bool, q Query, out Outcome) View {
	var v View
	v.Legend = domain.AQILegend()

	sel, sidebar := buildSidebar(fires, q)
	sidebar.City = out.Requested
	v.Sidebar = sidebar

	if out.TransportFailed {
		v.notice(SectionSidebar, LevelError, "Could not connect to live AQI data.")
	}
	if catalogUnavailable || len(fires) == 0 {
		v.notice(SectionSidebar, LevelWarning, "Fire data not loaded.")
	}
	if out.FellBack {
		v.notice(SectionMain, LevelInfo,
			fmt.Sprintf("Could not find live data for '%s'. Showing results for %s instead.", out.Requested, out.Location))
	}

	v.FireMap = buildFireMap(domain.FilterFires(fires, sel))
	if len(v.FireMap.Markers) == 0 {
		v.notice(SectionFires, LevelWarning, "No historical fire data matches your filter criteria.")
	}

	if out.Reading.Snapshot != nil {
		v.AirQuality = buildAirQuality(*out.Reading.Snapshot)
	} else {
		v.notice(SectionAirQuality, LevelWarning, "No air quality data available.")
	}

	if len(out.Reading.Forecast) > 0 {
		title := out.Requested
		if out.Reading.Snapshot != nil && out.Reading.Snapshot.Location != "" {
			title = out.Reading.Snapshot.Location
		}
		v.Forecast = buildForecast(title, out.Reading.Forecast)
	} else {
		v.notice(SectionForecast, LevelWarning, "Forecast data is not available for this location.")
	}

	return v
}

func (v *View) notice(section, level, text string) {
	v.Notices = append(v.Notices, Notice{Section: section, Level: level, Text: text})
}

// buildSidebar resolves the effective filter selection and the control state.
func buildSidebar(fires []domain.FireRecord, q Query) (domain.FilterSelection, Sidebar) {
	lo, hi, ok := domain.IntensityBounds(fires)
	sb := Sidebar{
		CountryOptions: domain.CountryOptions(fires),
		IntensityMin:   lo,
		IntensityMax:   hi,
		IntensityValue: lo,
		CatalogLoaded:  ok,
	}
	threshold := float64(lo)
	if q.MinIntensity != nil {
		// The slider only shows whole values inside the catalog range; the
		// filter keeps the requested threshold as given.
		threshold = *q.MinIntensity
		sb.IntensityValue = clamp(int(threshold), lo, hi)
	}

	countries := q.Countries
	if len(countries) == 0 && !q.Submitted {
		countries = []string{domain.AllCountries}
	}
	sb.SelectedCountries = append([]string{}, countries...)

	return domain.FilterSelection{Countries: countries, MinIntensity: threshold}, sb
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func buildFireMap(fires []domain.FireRecord) FireMap {
	m := FireMap{
		Center:  FireMapCenter,
		Zoom:    FireMapZoom,
		Tiles:   FireMapTiles,
		Markers: make([]FireMarker, 0, len(fires)),
	}
	for _, f := range fires {
		var start string
		if !f.StartDate.IsZero() {
			start = f.StartDate.Format(time.DateOnly)
		}
		m.Markers = append(m.Markers, FireMarker{
			Name:         f.Name,
			Country:      f.Country,
			StartDate:    start,
			Lat:          f.Latitude,
			Lon:          f.Longitude,
			IntensityFRP: f.IntensityFRP,
			Radius:       FireMarkerRadius,
			Color:        FireMarkerColor,
			FillColor:    FireMarkerFill,
		})
	}
	return m
}

func buildAirQuality(s domain.Snapshot) *AirQualityPanel {
	res := domain.PM25ToAQI(s.PM25)
	return &AirQualityPanel{
		Location:   s.Location,
		PM25:       s.PM25,
		StationAQI: s.StationAQI,
		AQI:        res,
		Color:      res.Category.Color(),
		Gauge: Gauge{
			Title:   GaugeTitle,
			Value:   res.AQI,
			AxisMax: GaugeAxisMax,
			Steps:   gaugeSteps(),
		},
		Point:      [2]float64{s.Lat, s.Lon},
		Zoom:       PointMapZoom,
		ObservedAt: s.ObservedAt,
	}
}

func buildForecast(location string, days []domain.ForecastDay) *ForecastChart {
	c := &ForecastChart{
		Title: fmt.Sprintf(forecastTitleTmpl, location),
		Days:  make([]string, 0, len(days)),
		Avg:   make([]float64, 0, len(days)),
		Min:   make([]float64, 0, len(days)),
		Max:   make([]float64, 0, len(days)),
	}
	for _, d := range days {
		c.Days = append(c.Days, d.Day.Format(time.DateOnly))
		c.Avg = append(c.Avg, d.Avg)
		c.Min = append(c.Min, d.Min)
		c.Max = append(c.Max, d.Max)
	}
	return c
}
