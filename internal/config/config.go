package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Imagery catalog.
	ProviderURL     string
	ProviderToken   string
	ProviderTimeout time.Duration

	// Inputs.
	FieldsFile   string
	PolygonsFile string

	// State and outputs.
	HistoryPath string
	OutputDir   string

	// Discovery window and filters.
	SeasonStart string  // fallback window start when history is empty
	CloudMax    float64 // inclusive cloud-cover ceiling, percent
	PixelScale  int     // sampling resolution in meters

	Workers int

	// Map styling overrides (optional YAML file).
	StyleFile string

	// Ops endpoints; empty disables the ops HTTP server.
	OpsAddr string

	LogLevel  string
	LogFormat string

	// Run-report events; empty brokers disable the notifier.
	KafkaBrokers  []string
	KafkaRunTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	cloudMax, err := parseFloat("CLOUD_MAX", 50)
	if err != nil {
		return nil, err
	}

	pixelScale, err := parseInt("PIXEL_SCALE", 10)
	if err != nil {
		return nil, err
	}

	workers, err := parseInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProviderURL:     os.Getenv("PROVIDER_URL"),
		ProviderToken:   os.Getenv("PROVIDER_TOKEN"),
		ProviderTimeout: providerTimeout,

		FieldsFile:   envOrDefault("FIELDS_FILE", "fields.csv"),
		PolygonsFile: envOrDefault("POLYGONS_FILE", "polygons.geojson"),

		HistoryPath: envOrDefault("HISTORY_PATH", "observation_history.db"),
		OutputDir:   envOrDefault("OUTPUT_DIR", "output"),

		SeasonStart: envOrDefault("SEASON_START", "2025-12-01"),
		CloudMax:    cloudMax,
		PixelScale:  pixelScale,
		Workers:     workers,

		StyleFile: os.Getenv("STYLE_FILE"),
		OpsAddr:   os.Getenv("OPS_ADDR"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		KafkaBrokers:  splitBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaRunTopic: envOrDefault("KAFKA_RUN_TOPIC", "wheat-map-runs"),
	}

	if cfg.ProviderURL == "" {
		return nil, errors.New("PROVIDER_URL is required")
	}
	if cfg.ProviderToken == "" {
		return nil, errors.New("PROVIDER_TOKEN is required")
	}
	if cfg.CloudMax < 0 || cfg.CloudMax > 100 {
		return nil, errors.New("CLOUD_MAX must be between 0 and 100")
	}
	if cfg.PixelScale <= 0 {
		return nil, errors.New("PIXEL_SCALE must be positive")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("WORKERS must be positive")
	}
	if _, err := time.Parse("2006-01-02", cfg.SeasonStart); err != nil {
		return nil, fmt.Errorf("invalid SEASON_START: %w", err)
	}

	return cfg, nil
}

// KafkaEnabled reports whether run-report publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LayerCacheDir is where per-date layer documents live, under the output
// directory so the whole product tree ships as one unit.
func (c *Config) LayerCacheDir() string {
	return filepath.Join(c.OutputDir, "cache")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func splitBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
