package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/couchcryptid/fire-aq-dashboard/internal/adapter/csvcatalog"
	"github.com/couchcryptid/fire-aq-dashboard/internal/dashboard"
	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalogSource struct {
	fires []domain.FireRecord
	err   error
	loads atomic.Int64
}

func (m *mockCatalogSource) LoadFires(_ context.Context) ([]domain.FireRecord, error) {
	m.loads.Add(1)
	return m.fires, m.err
}

type healthySource struct {
	mockCatalogSource
	healthErr error
}

func (h *healthySource) Health(_ context.Context) error {
	return h.healthErr
}

func TestCatalog_LoadsOnce(t *testing.T) {
	src := &mockCatalogSource{fires: testFires}
	m := observability.NewMetricsForTesting()
	c := dashboard.NewCatalog(src, discardLogger(), m)

	assert.Len(t, c.Fires(context.Background()), 2)
	assert.Len(t, c.Fires(context.Background()), 2)

	assert.Equal(t, int64(1), src.loads.Load())
	assert.False(t, c.Unavailable())
	assert.InDelta(t, 2, testutil.ToFloat64(m.FireCatalogRows), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FireCatalogAvailable), 0)
}

func TestCatalog_FailureIsEmptyAndRemembered(t *testing.T) {
	src := &mockCatalogSource{err: fmt.Errorf("%w: open fires.csv: no such file", csvcatalog.ErrCatalogUnavailable)}
	m := observability.NewMetricsForTesting()
	c := dashboard.NewCatalog(src, discardLogger(), m)

	assert.Empty(t, c.Fires(context.Background()))
	assert.Empty(t, c.Fires(context.Background()))

	assert.True(t, c.Unavailable())
	require.Error(t, c.Err())
	assert.Equal(t, int64(1), src.loads.Load())
	assert.InDelta(t, 0, testutil.ToFloat64(m.FireCatalogAvailable), 0)
}

// flakyCatalogSource fails its first `failures` loads and then succeeds.
type flakyCatalogSource struct {
	fires    []domain.FireRecord
	failures int64
	loads    atomic.Int64
}

func (f *flakyCatalogSource) LoadFires(_ context.Context) ([]domain.FireRecord, error) {
	if f.loads.Add(1) <= f.failures {
		return nil, errors.New("failed to connect to postgres: connection refused")
	}
	return f.fires, nil
}

func TestCatalog_TransientFailureIsRetried(t *testing.T) {
	src := &flakyCatalogSource{fires: testFires, failures: 1}
	m := observability.NewMetricsForTesting()
	c := dashboard.NewCatalog(src, discardLogger(), m)

	assert.Empty(t, c.Fires(context.Background()))
	assert.True(t, c.Unavailable())
	assert.InDelta(t, 0, testutil.ToFloat64(m.FireCatalogAvailable), 0)

	assert.Len(t, c.Fires(context.Background()), 2)
	assert.False(t, c.Unavailable())
	require.NoError(t, c.Err())
	assert.InDelta(t, 1, testutil.ToFloat64(m.FireCatalogAvailable), 0)

	c.Fires(context.Background())
	assert.Equal(t, int64(2), src.loads.Load())
}

func TestCatalog_TransientFailureIsNotReady(t *testing.T) {
	src := &flakyCatalogSource{fires: testFires, failures: 2}
	c := dashboard.NewCatalog(src, discardLogger(), observability.NewMetricsForTesting())

	c.Fires(context.Background())

	err := c.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int64(2), src.loads.Load())

	require.NoError(t, c.CheckReadiness(context.Background()))
	assert.Len(t, c.Fires(context.Background()), 2)
	assert.Equal(t, int64(3), src.loads.Load())
}

func TestCatalog_CancelledContextDoesNotPoisonLoad(t *testing.T) {
	src := &mockCatalogSource{fires: testFires}
	c := dashboard.NewCatalog(src, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Len(t, c.Fires(ctx), 2)
}

func TestCatalog_CheckReadiness(t *testing.T) {
	src := &healthySource{mockCatalogSource: mockCatalogSource{fires: testFires}}
	c := dashboard.NewCatalog(src, discardLogger(), observability.NewMetricsForTesting())

	require.Error(t, c.CheckReadiness(context.Background()), "not ready before first load")

	c.Fires(context.Background())
	require.NoError(t, c.CheckReadiness(context.Background()))

	src.healthErr = errors.New("connection refused")
	require.Error(t, c.CheckReadiness(context.Background()))
}

func TestCatalog_UnavailableIsStillReady(t *testing.T) {
	src := &mockCatalogSource{err: fmt.Errorf("%w: missing", csvcatalog.ErrCatalogUnavailable)}
	c := dashboard.NewCatalog(src, discardLogger(), observability.NewMetricsForTesting())

	c.Fires(context.Background())
	require.NoError(t, c.CheckReadiness(context.Background()))
}

func TestService_Render(t *testing.T) {
	m := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()
	src := &mockSource{results: map[string]fetchResult{
		"delhi": {reading: okReading("Delhi", 40)},
	}}
	svc := dashboard.NewService(
		dashboard.NewCatalog(&mockCatalogSource{fires: testFires}, discardLogger(), m),
		dashboard.NewOrchestrator(src, "Delhi", discardLogger(), m),
		clock, discardLogger(), m,
	)

	svc.Warm(context.Background())
	require.NoError(t, svc.CheckReadiness(context.Background()))

	v := svc.Render(context.Background(), dashboard.Query{City: "Atlantis"})

	assert.Equal(t, clock.Now().UTC(), v.RenderedAt)
	assert.Len(t, v.FireMap.Markers, 2)
	require.NotNil(t, v.AirQuality)
	assert.Equal(t, "Delhi", v.AirQuality.Location)
	assert.Len(t, v.NoticesFor(dashboard.SectionMain), 1)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PageRenders), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Fallbacks), 0)
}

func TestService_NotReadyBeforeWarm(t *testing.T) {
	m := observability.NewMetricsForTesting()
	svc := dashboard.NewService(
		dashboard.NewCatalog(&mockCatalogSource{}, discardLogger(), m),
		dashboard.NewOrchestrator(&mockSource{}, "Delhi", discardLogger(), m),
		clockwork.NewFakeClock(), discardLogger(), m,
	)

	require.Error(t, svc.CheckReadiness(context.Background()))
}
