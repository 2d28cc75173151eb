package waqi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultBaseURL is the public WAQI API root.
const DefaultBaseURL = "https://api.waqi.info"

// ErrTransport marks network-level failures, including timeouts.
var ErrTransport = errors.New("waqi transport failure")

// Client implements domain.AirQualitySource using the WAQI feed API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a WAQI feed client. Every request is bounded by timeout.
func NewClient(token, baseURL string, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch requests the live feed for a location (city name, "@station" id or
// "geo:lat;lon"). A non-"ok" upstream status is returned as a Reading with
// that status and no data.
func (c *Client) Fetch(ctx context.Context, location string) (domain.Reading, error) {
	start := c.clock.Now()
	reading, err := c.doRequest(ctx, location)
	c.metrics.AirQualityAPIDuration.Observe(c.clock.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.AirQualityRequests.WithLabelValues("transport_error").Inc()
		c.logger.Warn("waqi feed request failed", "location", location, "error", err)
	case !reading.OK():
		c.metrics.AirQualityRequests.WithLabelValues("status_error").Inc()
		c.logger.Info("waqi feed returned non-ok status", "location", location, "status", reading.Status)
	default:
		c.metrics.AirQualityRequests.WithLabelValues("ok").Inc()
	}
	return reading, err
}

func (c *Client) doRequest(ctx context.Context, location string) (domain.Reading, error) {
	u := fmt.Sprintf("%s/feed/%s/?%s", c.baseURL, feedPathSegment(location), url.Values{"token": {c.token}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%w: feed request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Reading{}, fmt.Errorf("waqi API error: status %d: %s", resp.StatusCode, body)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return domain.Reading{}, fmt.Errorf("decode response: %w", err)
	}

	if env.Status != domain.StatusOK {
		return domain.Reading{Status: env.Status}, nil
	}

	var data feedData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return domain.Reading{}, fmt.Errorf("decode feed data: %w", err)
	}
	return c.toReading(location, data)
}

// feedPathSegment escapes a location for the feed path. The ';' separating
// geo coordinates must reach the API unescaped.
func feedPathSegment(location string) string {
	return strings.ReplaceAll(url.PathEscape(location), "%3B", ";")
}

func (c *Client) toReading(location string, data feedData) (domain.Reading, error) {
	if len(data.City.Geo) < 2 {
		return domain.Reading{}, errors.New("feed data has no city.geo coordinates")
	}

	name := data.City.Name
	if name == "" {
		name = location
	}

	snap := &domain.Snapshot{
		Location:   name,
		StationAQI: parseStationAQI(data.AQI),
		Lat:        data.City.Geo[0],
		Lon:        data.City.Geo[1],
		ObservedAt: data.Time.S,
		FetchedAt:  c.clock.Now(),
	}
	if data.IAQI.PM25 != nil {
		snap.PM25 = data.IAQI.PM25.V
	}

	forecast := make([]domain.ForecastDay, 0, len(data.Forecast.Daily.PM25))
	for _, f := range data.Forecast.Daily.PM25 {
		day, err := time.Parse(time.DateOnly, f.Day)
		if err != nil {
			c.logger.Debug("skipping forecast entry with bad day", "location", location, "day", f.Day)
			continue
		}
		forecast = append(forecast, domain.ForecastDay{Day: day, Avg: f.Avg, Min: f.Min, Max: f.Max})
	}

	return domain.Reading{Status: domain.StatusOK, Snapshot: snap, Forecast: forecast}, nil
}

// parseStationAQI reads data.aqi, which WAQI sends as a number or as "-"
// when the station has no current index.
func parseStationAQI(raw json.RawMessage) *int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "-" || s == "null" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// WAQI API response types.

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"` // object when status is "ok", error string otherwise
}

type feedData struct {
	AQI  json.RawMessage `json:"aqi"`
	IAQI struct {
		PM25 *iaqiValue `json:"pm25"`
	} `json:"iaqi"`
	City struct {
		Name string    `json:"name"`
		Geo  []float64 `json:"geo"` // [lat, lon]
	} `json:"city"`
	Time struct {
		S string `json:"s"`
	} `json:"time"`
	Forecast struct {
		Daily struct {
			PM25 []forecastEntry `json:"pm25"`
		} `json:"daily"`
	} `json:"forecast"`
}

type iaqiValue struct {
	V *float64 `json:"v"`
}

type forecastEntry struct {
	Day string  `json:"day"`
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
