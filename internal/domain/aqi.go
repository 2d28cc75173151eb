package domain

import "math"

// Category is a qualitative US EPA air-quality band.
type Category string

const (
	CategoryGood                  Category = "Good"
	CategoryModerate              Category = "Moderate"
	CategoryUnhealthyForSensitive Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy             Category = "Unhealthy"
	CategoryVeryUnhealthy         Category = "Very Unhealthy"
	CategoryHazardous             Category = "Hazardous"
	CategoryUnknown               Category = "Unknown"
)

// Color returns the display colour used for the category on the gauge and legend.
func (c Category) Color() string {
	switch c {
	case CategoryGood:
		return "green"
	case CategoryModerate:
		return "yellow"
	case CategoryUnhealthyForSensitive:
		return "orange"
	case CategoryUnhealthy:
		return "red"
	case CategoryVeryUnhealthy:
		return "purple"
	case CategoryHazardous:
		return "maroon"
	default:
		return "gray"
	}
}

// AQIResult is the index derived from a PM2.5 concentration.
// AQI is 0 when Category is CategoryUnknown.
type AQIResult struct {
	AQI      int      `json:"aqi"`
	Category Category `json:"category"`
}

// breakpoint maps a concentration range (µg/m³) onto an AQI range.
type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

// pm25Breakpoints is the EPA PM2.5 table up to the top of "Very Unhealthy".
var pm25Breakpoints = []breakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
}

// HazardousFlatAQI is reported for every concentration above the last breakpoint.
// The EPA table keeps interpolating up to 500; this dashboard does not.
const HazardousFlatAQI = 301

// PM25ToAQI converts a PM2.5 concentration into an AQI value and category.
// A nil (or NaN) concentration yields (0, Unknown). Negative readings are
// treated as zero.
func PM25ToAQI(pm25 *float64) AQIResult {
	if pm25 == nil || math.IsNaN(*pm25) {
		return AQIResult{AQI: 0, Category: CategoryUnknown}
	}

	c := math.Max(*pm25, 0)
	aqi := HazardousFlatAQI
	for _, bp := range pm25Breakpoints {
		// Upper bounds are inclusive, so 12.0 stays Good and 12.1 is Moderate.
		// Values inside a gap (12.0, 12.1) land in the next band.
		if c <= bp.cHigh {
			aqi = int(math.Round((bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + bp.iLow))
			break
		}
	}

	return AQIResult{AQI: aqi, Category: CategoryForAQI(aqi)}
}

// CategoryForAQI classifies an AQI value using the EPA category thresholds.
func CategoryForAQI(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategoryUnhealthyForSensitive
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

// LegendEntry describes one AQI band for the reference panel.
type LegendEntry struct {
	Category    Category `json:"category"`
	Range       string   `json:"range"`
	Color       string   `json:"color"`
	Description string   `json:"description"`
}

// AQILegend returns the static AQI reference table, lowest band first.
func AQILegend() []LegendEntry {
	entries := []LegendEntry{
		{CategoryGood, "0-50", "", "Air quality is satisfactory, and air pollution poses little or no risk."},
		{CategoryModerate, "51-100", "", "Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution."},
		{CategoryUnhealthyForSensitive, "101-150", "", "Members of sensitive groups may experience health effects. The general public is less likely to be affected."},
		{CategoryUnhealthy, "151-200", "", "Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects."},
		{CategoryVeryUnhealthy, "201-300", "", "Health alert: The risk of health effects is increased for everyone."},
		{CategoryHazardous, "301+", "", "Health warning of emergency conditions: everyone is more likely to be affected."},
	}
	for i := range entries {
		entries[i].Color = entries[i].Category.Color()
	}
	return entries
}
