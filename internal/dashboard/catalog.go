package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/fire-aq-dashboard/internal/adapter/csvcatalog"
	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
)

// CatalogSource loads the historical wildfire catalog.
type CatalogSource interface {
	LoadFires(ctx context.Context) ([]domain.FireRecord, error)
}

// healthChecker is implemented by sources backed by a live connection.
type healthChecker interface {
	Health(ctx context.Context) error
}

// Catalog memoizes the load of a CatalogSource. A successful load, or a
// failure wrapping csvcatalog.ErrCatalogUnavailable, is kept for the life of
// the process. Any other failure, such as a dropped database connection,
// leaves an empty catalog that is loaded again on the next call.
type Catalog struct {
	source  CatalogSource
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex // serializes loads
	state atomic.Pointer[catalogState]
}

type catalogState struct {
	fires []domain.FireRecord
	err   error
}

// final reports whether the state should never be reloaded.
func (s *catalogState) final() bool {
	return s.err == nil || errors.Is(s.err, csvcatalog.ErrCatalogUnavailable)
}

// NewCatalog creates a lazily loaded catalog.
func NewCatalog(source CatalogSource, logger *slog.Logger, metrics *observability.Metrics) *Catalog {
	return &Catalog{source: source, logger: logger, metrics: metrics}
}

// Fires returns the catalog, loading it when needed. It never fails: a
// load error yields an empty slice and Unavailable reports true.
func (c *Catalog) Fires(ctx context.Context) []domain.FireRecord {
	// Detach from the caller so a cancelled request does not abort the load.
	return c.load(context.WithoutCancel(ctx)).fires
}

func (c *Catalog) load(ctx context.Context) *catalogState {
	if st := c.state.Load(); st != nil && st.final() {
		return st
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if st := c.state.Load(); st != nil && st.final() {
		return st
	}

	fires, err := c.source.LoadFires(ctx)
	st := &catalogState{fires: fires, err: err}
	if err != nil {
		st.fires = nil
		c.metrics.FireCatalogAvailable.Set(0)
		if st.final() {
			c.logger.Warn("fire catalog unavailable, continuing with an empty catalog", "error", err)
		} else {
			c.logger.Warn("fire catalog load failed, will retry", "error", err)
		}
	} else {
		c.metrics.FireCatalogAvailable.Set(1)
	}
	c.metrics.FireCatalogRows.Set(float64(len(st.fires)))
	c.state.Store(st)
	return st
}

// Unavailable reports whether the last load failed. It is false before the first load.
func (c *Catalog) Unavailable() bool {
	st := c.state.Load()
	return st != nil && st.err != nil
}

// Err returns the last load error, if any.
func (c *Catalog) Err() error {
	if st := c.state.Load(); st != nil {
		return st.err
	}
	return nil
}

// CheckReadiness reports an error until the catalog has been loaded. A
// failed load that can be retried is retried here and reported until it
// succeeds. A connection-backed source must also pass its health check.
// A missing catalog file is a degraded state, not an unready one.
func (c *Catalog) CheckReadiness(ctx context.Context) error {
	st := c.state.Load()
	if st == nil {
		return errors.New("fire catalog has not been loaded yet")
	}
	if !st.final() {
		if st = c.load(ctx); !st.final() {
			return fmt.Errorf("fire catalog load failed: %w", st.err)
		}
	}
	if hc, ok := c.source.(healthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}
