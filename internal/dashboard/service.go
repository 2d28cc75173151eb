package dashboard

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Service renders dashboard views from the fire catalog and the live
// air-quality orchestrator.
type Service struct {
	catalog      *Catalog
	orchestrator *Orchestrator
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewService wires a Service.
func NewService(catalog *Catalog, orchestrator *Orchestrator, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		catalog:      catalog,
		orchestrator: orchestrator,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

// Warm loads the fire catalog ahead of the first request.
func (s *Service) Warm(ctx context.Context) {
	fires := s.catalog.Fires(ctx)
	s.logger.Info("dashboard warmed", "fires", len(fires), "catalog_unavailable", s.catalog.Unavailable())
}

// Render builds the view for one request.
func (s *Service) Render(ctx context.Context, q Query) View {
	start := s.clock.Now()

	fires := s.catalog.Fires(ctx)
	out := s.orchestrator.Resolve(ctx, q.City)
	v := BuildView(fires, s.catalog.Unavailable(), q, out)
	v.RenderedAt = start.UTC()

	s.metrics.PageRenders.Inc()
	s.metrics.PageRenderDuration.Observe(s.clock.Since(start).Seconds())
	s.logger.Debug("dashboard rendered",
		"requested", out.Requested,
		"location", out.Location,
		"fell_back", out.FellBack,
		"status", out.Reading.Status,
		"fires", len(v.FireMap.Markers),
	)
	return v
}

// CheckReadiness returns nil once the fire catalog has been loaded.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.catalog.CheckReadiness(ctx)
}
