package dashboard_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/couchcryptid/fire-aq-dashboard/internal/adapter/waqi"
	"github.com/couchcryptid/fire-aq-dashboard/internal/dashboard"
	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type fetchResult struct {
	reading domain.Reading
	err     error
}

// mockSource answers by lower-cased location and records every call.
type mockSource struct {
	mu      sync.Mutex
	results map[string]fetchResult
	calls   []string
}

func (m *mockSource) Fetch(_ context.Context, location string) (domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, location)
	r, ok := m.results[strings.ToLower(location)]
	if !ok {
		return domain.Reading{Status: "error"}, nil
	}
	return r.reading, r.err
}

func okReading(location string, pm25 float64) domain.Reading {
	return domain.Reading{
		Status: domain.StatusOK,
		Snapshot: &domain.Snapshot{
			Location: location,
			PM25:     &pm25,
			Lat:      28.6,
			Lon:      77.2,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(src domain.AirQualitySource) (*dashboard.Orchestrator, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return dashboard.NewOrchestrator(src, "Delhi", discardLogger(), m), m
}

// --- tests ---

func TestResolve_RequestedOK(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"paris": {reading: okReading("Paris", 14)},
	}}
	o, m := newOrchestrator(src)

	out := o.Resolve(context.Background(), "Paris")

	assert.Equal(t, "Paris", out.Requested)
	assert.Equal(t, "Paris", out.Location)
	assert.False(t, out.FellBack)
	assert.False(t, out.TransportFailed)
	assert.True(t, out.Reading.OK())
	assert.Equal(t, []string{"Paris"}, src.calls)
	assert.InDelta(t, 0, testutil.ToFloat64(m.Fallbacks), 0)
}

func TestResolve_UnknownCityFallsBack(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"atlantis": {reading: domain.Reading{Status: "error"}},
		"delhi":    {reading: okReading("Delhi", 180)},
	}}
	o, m := newOrchestrator(src)

	out := o.Resolve(context.Background(), "Atlantis")

	assert.True(t, out.FellBack)
	assert.False(t, out.TransportFailed)
	assert.Equal(t, "Atlantis", out.Requested)
	assert.Equal(t, "Delhi", out.Location)
	require.NotNil(t, out.Reading.Snapshot)
	assert.Equal(t, "Delhi", out.Reading.Snapshot.Location)
	assert.Equal(t, []string{"Atlantis", "Delhi"}, src.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Fallbacks), 0)
}

func TestResolve_TransportErrorFallsBack(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"paris": {err: waqi.ErrTransport},
		"delhi": {reading: okReading("Delhi", 180)},
	}}
	o, _ := newOrchestrator(src)

	out := o.Resolve(context.Background(), "Paris")

	assert.True(t, out.FellBack)
	assert.True(t, out.TransportFailed)
	assert.True(t, out.Reading.OK())
	assert.Len(t, src.calls, 2)
}

func TestResolve_FallbackEqualsDirectCall(t *testing.T) {
	delhi := okReading("Delhi", 95)
	src := &mockSource{results: map[string]fetchResult{
		"delhi": {reading: delhi},
	}}
	o, _ := newOrchestrator(src)

	out := o.Resolve(context.Background(), "Nowhere")
	direct, err := src.Fetch(context.Background(), "Delhi")
	require.NoError(t, err)

	assert.Equal(t, direct, out.Reading)
}

func TestResolve_FallbackAlsoFails(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"paris": {err: errors.New("dial tcp: timeout")},
		"delhi": {err: errors.New("dial tcp: timeout")},
	}}
	o, _ := newOrchestrator(src)

	out := o.Resolve(context.Background(), "Paris")

	assert.True(t, out.FellBack)
	assert.True(t, out.TransportFailed)
	assert.True(t, out.FallbackFailed)
	assert.True(t, out.Reading.Empty())
	assert.Len(t, src.calls, 2, "no retries beyond the single fallback")
}

func TestResolve_FallbackNonOKStatusPreserved(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"delhi": {reading: domain.Reading{Status: "error"}},
	}}
	o, _ := newOrchestrator(src)

	out := o.Resolve(context.Background(), "Paris")

	assert.True(t, out.FellBack)
	assert.False(t, out.FallbackFailed)
	assert.Equal(t, "error", out.Reading.Status)
	assert.True(t, out.Reading.Empty())
}

// flakySource fails with a transport error on its first call and then
// answers every call with reading.
type flakySource struct {
	mu      sync.Mutex
	reading domain.Reading
	calls   []string
}

func (f *flakySource) Fetch(_ context.Context, location string) (domain.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, location)
	if len(f.calls) == 1 {
		return domain.Reading{}, waqi.ErrTransport
	}
	return f.reading, nil
}

func TestResolve_DefaultLocationRetriedOnTransportError(t *testing.T) {
	src := &flakySource{reading: okReading("Delhi", 60)}
	o, m := newOrchestrator(src)

	out := o.Resolve(context.Background(), "Delhi")

	assert.Equal(t, []string{"Delhi", "Delhi"}, src.calls)
	assert.False(t, out.FellBack)
	assert.True(t, out.TransportFailed)
	assert.False(t, out.FallbackFailed)
	assert.True(t, out.Reading.OK())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Fallbacks), 0)
}

func TestResolve_DefaultLocationTransportErrorTwice(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"delhi": {err: waqi.ErrTransport},
	}}
	o, _ := newOrchestrator(src)

	out := o.Resolve(context.Background(), "delhi")

	assert.Equal(t, []string{"delhi", "Delhi"}, src.calls)
	assert.False(t, out.FellBack)
	assert.True(t, out.FallbackFailed)
	assert.True(t, out.Reading.Empty())
}

func TestResolve_DefaultLocationNonOKNotRetried(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"delhi": {reading: domain.Reading{Status: "error"}},
	}}
	o, m := newOrchestrator(src)

	out := o.Resolve(context.Background(), "DELHI")

	assert.Equal(t, []string{"DELHI"}, src.calls)
	assert.False(t, out.FellBack)
	assert.Equal(t, "error", out.Reading.Status)
	assert.InDelta(t, 0, testutil.ToFloat64(m.Fallbacks), 0)
}

func TestResolve_BlankUsesDefault(t *testing.T) {
	src := &mockSource{results: map[string]fetchResult{
		"delhi": {reading: okReading("Delhi", 60)},
	}}
	o, _ := newOrchestrator(src)

	out := o.Resolve(context.Background(), "   ")

	assert.Equal(t, "Delhi", out.Requested)
	assert.False(t, out.FellBack)
	assert.Equal(t, []string{"Delhi"}, src.calls)
}
