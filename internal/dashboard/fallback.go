package dashboard

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
)

// Outcome is the air-quality result of one render.
type Outcome struct {
	Requested string         // location the user asked for (blank mapped to the default)
	Location  string         // location whose reading is shown
	Reading   domain.Reading // empty when nothing could be fetched

	FellBack        bool // the default location replaced the requested one
	TransportFailed bool // the requested location failed at the transport level
	FallbackFailed  bool // the default location also failed at the transport level
}

// Orchestrator fetches live air quality, retrying once with a fixed default
// location when the requested one fails.
type Orchestrator struct {
	source          domain.AirQualitySource
	defaultLocation string
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// NewOrchestrator creates an Orchestrator that falls back to defaultLocation.
func NewOrchestrator(source domain.AirQualitySource, defaultLocation string, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		source:          source,
		defaultLocation: defaultLocation,
		logger:          logger,
		metrics:         metrics,
	}
}

// DefaultLocation returns the fallback location.
func (o *Orchestrator) DefaultLocation() string {
	return o.defaultLocation
}

// Resolve fetches the requested location. On a transport error or a
// non-"ok" status it makes exactly one immediate call for the default
// location. When the request already names the default, only a transport
// error is retried and FellBack stays false. Failures never escape: the
// Outcome carries an empty Reading.
func (o *Orchestrator) Resolve(ctx context.Context, requested string) Outcome {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = o.defaultLocation
	}
	out := Outcome{Requested: requested, Location: requested}

	reading, err := o.source.Fetch(ctx, requested)
	if err == nil && reading.OK() {
		out.Reading = reading
		return out
	}
	if err != nil {
		out.TransportFailed = true
		o.logger.Warn("air quality fetch failed", "location", requested, "error", err)
	} else {
		o.logger.Info("air quality location not found", "location", requested, "status", reading.Status)
	}

	// A clean non-ok answer for the default location would only repeat.
	// A transport error still gets its one retry.
	sameAsDefault := strings.EqualFold(requested, o.defaultLocation)
	if sameAsDefault && err == nil {
		out.Reading = reading
		return out
	}

	out.FellBack = !sameAsDefault
	out.Location = o.defaultLocation
	o.metrics.Fallbacks.Inc()

	fallback, err := o.source.Fetch(ctx, o.defaultLocation)
	if err != nil {
		out.FallbackFailed = true
		o.logger.Warn("fallback air quality fetch failed", "location", o.defaultLocation, "requested", requested, "error", err)
		return out
	}
	if !fallback.OK() {
		o.logger.Warn("fallback location returned non-ok status", "location", o.defaultLocation, "status", fallback.Status)
	}
	out.Reading = fallback
	return out
}
