package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fire_aq_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Upstream air-quality metrics.
	AirQualityRequests    *prometheus.CounterVec // labels: outcome={ok,status_error,transport_error}
	AirQualityAPIDuration prometheus.Histogram
	AirQualityCache       *prometheus.CounterVec // labels: result={hit,miss,stale}
	Fallbacks             prometheus.Counter

	// Fire catalog metrics.
	FireCatalogRows      prometheus.Gauge
	FireCatalogAvailable prometheus.Gauge

	// Page rendering.
	PageRenders        prometheus.Counter
	PageRenderDuration prometheus.Histogram
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.AirQualityRequests,
		m.AirQualityAPIDuration,
		m.AirQualityCache,
		m.Fallbacks,
		m.FireCatalogRows,
		m.FireCatalogAvailable,
		m.PageRenders,
		m.PageRenderDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AirQualityRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "air_quality_requests_total",
			Help:      "WAQI feed requests by outcome.",
		}, []string{"outcome"}),
		AirQualityAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "air_quality_api_duration_seconds",
			Help:      "WAQI feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AirQualityCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "air_quality_cache_total",
			Help:      "Air-quality cache lookups by result.",
		}, []string{"result"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "air_quality_fallbacks_total",
			Help:      "Requests answered with the default location after the requested one failed.",
		}),
		FireCatalogRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fire_catalog_rows",
			Help:      "Number of historical fire records loaded.",
		}),
		FireCatalogAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fire_catalog_available",
			Help:      "1 when the fire catalog loaded, 0 when it was unavailable.",
		}),
		PageRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_renders_total",
			Help:      "Total dashboard page renders.",
		}),
		PageRenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_render_duration_seconds",
			Help:      "Time to assemble the dashboard view, including upstream fetches.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
