package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// WAQI air-quality feed configuration.
	WAQIToken   string
	WAQIBaseURL string
	WAQITimeout time.Duration
	AQCacheTTL  time.Duration
	AQCacheSize int
	DefaultCity string

	// Fire catalog source. A non-empty DSN selects Postgres over the CSV file.
	FireCatalogPath string
	FireCatalogDSN  string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	waqiTimeout, err := parsePositiveDuration("WAQI_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("AQ_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WAQIToken:   os.Getenv("WAQI_TOKEN"),
		WAQIBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("WAQI_BASE_URL", "https://api.waqi.info"), "/"),
		WAQITimeout: waqiTimeout,
		AQCacheTTL:  cacheTTL,
		AQCacheSize: parseCacheSize(),
		DefaultCity: strings.TrimSpace(sharedcfg.EnvOrDefault("DEFAULT_CITY", "Delhi")),

		FireCatalogPath: sharedcfg.EnvOrDefault("FIRE_CATALOG_PATH", "data/major_wildfires.csv"),
		FireCatalogDSN:  os.Getenv("FIRE_CATALOG_DSN"),
	}

	if cfg.WAQIToken == "" {
		return nil, errors.New("WAQI_TOKEN is required")
	}
	if cfg.DefaultCity == "" {
		return nil, errors.New("DEFAULT_CITY must not be blank")
	}
	if cfg.FireCatalogDSN == "" && cfg.FireCatalogPath == "" {
		return nil, errors.New("one of FIRE_CATALOG_PATH or FIRE_CATALOG_DSN is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("AQ_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
