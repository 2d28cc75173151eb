// Package domain models the two datasets the dashboard overlays: a static
// catalog of historical wildfires and live PM2.5 readings from the World Air
// Quality Index (WAQI) project.
//
// # Data Sources
//
// Wildfires come from a curated CSV (or an equivalent read-only table) with
// the columns name, country, start_date, latitude, longitude, intensity_frp.
// Intensity is Fire Radiative Power (FRP) in megawatts, a remote-sensing
// proxy for how hard a fire burned.
//
// Air quality comes from the WAQI feed endpoint:
//
//	GET https://api.waqi.info/feed/<location>/?token=<token>
//
// The envelope is {"status": "...", "data": ...}. Only when status is "ok"
// is data an object; otherwise it is an error string such as
// "Unknown station".
//
// # PM2.5 and AQI
//
// WAQI publishes PM2.5 as a concentration in µg/m³ (iaqi.pm25.v). The
// dashboard converts it to the US EPA Air Quality Index with the piecewise
// linear formula
//
//	AQI = (I_high - I_low) / (C_high - C_low) * (C - C_low) + I_low
//
// over these breakpoints:
//
//	  0.0 –  12.0 µg/m³  →   0 –  50  Good
//	 12.1 –  35.4 µg/m³  →  51 – 100  Moderate
//	 35.5 –  55.4 µg/m³  → 101 – 150  Unhealthy for Sensitive Groups
//	 55.5 – 150.4 µg/m³  → 151 – 200  Unhealthy
//	150.5 – 250.4 µg/m³  → 201 – 300  Very Unhealthy
//	      > 250.4 µg/m³  → 301        Hazardous (flat, not interpolated)
//
// The EPA table continues interpolating above 300 up to 500; this dashboard
// reports a flat 301 instead. See [PM25ToAQI].
//
// # Fire Filtering
//
// The sidebar selects countries (with "All" as a wildcard) and a minimum
// FRP. An empty country selection deliberately shows nothing. See
// [FilterFires].
package domain
