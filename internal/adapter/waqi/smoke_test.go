//go:build waqi

package waqi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real WAQI API and require a valid WAQI_TOKEN env var.
// Run with: go test -tags=waqi ./internal/adapter/waqi/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("WAQI_TOKEN")
	if token == "" {
		t.Fatal("WAQI_TOKEN must be set to run smoke tests")
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		clock:      clockwork.NewRealClock(),
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_FetchDelhi(t *testing.T) {
	c := smokeClient(t)

	reading, err := c.Fetch(context.Background(), "Delhi")
	require.NoError(t, err)
	require.True(t, reading.OK(), "status=%s", reading.Status)
	require.NotNil(t, reading.Snapshot)

	assert.InDelta(t, 28.6, reading.Snapshot.Lat, 1.0, "lat should be near Delhi")
	assert.InDelta(t, 77.2, reading.Snapshot.Lon, 1.0, "lon should be near Delhi")
	assert.NotEmpty(t, reading.Snapshot.Location)
}

func TestSmoke_UnknownStation(t *testing.T) {
	c := smokeClient(t)

	reading, err := c.Fetch(context.Background(), "xyznonexistentcity99")
	require.NoError(t, err)
	assert.False(t, reading.OK())
	assert.Nil(t, reading.Snapshot)
}

func TestSmoke_CachedClient(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedClient(c, 10*time.Minute, 10, clockwork.NewRealClock(), observability.NewMetricsForTesting())

	r1, err := cached.Fetch(context.Background(), "Beijing")
	require.NoError(t, err)

	r2, err := cached.Fetch(context.Background(), "Beijing")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
