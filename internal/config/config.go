// Package config defines the frozen configuration record RuuviTel is
// booted with. Unlike the teacher's SQLite-backed, dynamically editable
// ConfigProvider, this is a single struct read once from a YAML file and
// validated before anything else starts — no attribute-by-string lookups,
// no live CRUD surface.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the complete, immutable configuration record for one RuuviTel
// process. A `reload` signal makes internal/app re-read the same file into a
// fresh Config and hand its Forecast section to internal/orchestrator; the
// Scan, Store and Ambient sections are not re-applied.
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Store    StoreConfig    `yaml:"store"`
	Forecast ForecastConfig `yaml:"forecast"`
	Ambient  AmbientConfig  `yaml:"ambient"`
}

// ScanConfig covers the BLE adapter and retry tuning shared by the scan
// source (C2) and, via RetryAttempts/RetryDelay/RetryBase, the store client.
type ScanConfig struct {
	AdapterID     string        `yaml:"adapter_id"`
	ScanDuration  time.Duration `yaml:"scan_duration"`
	ScanInterval  time.Duration `yaml:"scan_interval"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	RetryBase     float64       `yaml:"retry_base"`

	FlushInterval time.Duration `yaml:"flush_interval"`
	MaxBufferSize int           `yaml:"max_buffer_size"`
}

// StoreConfig carries the time-series store coordinates and batching knobs.
type StoreConfig struct {
	Endpoint      string        `yaml:"store_endpoint"`
	Token         string        `yaml:"store_token"`
	Org           string        `yaml:"store_org"`
	Bucket        string        `yaml:"store_bucket"`
	WeatherBucket string        `yaml:"weather_bucket"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	MaxBufferSize int           `yaml:"max_buffer_size"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// ForecastConfig carries the forecast fetcher/orchestrator tuning.
type ForecastConfig struct {
	Endpoint              string        `yaml:"forecast_endpoint"`
	Timeout               time.Duration `yaml:"forecast_timeout"`
	RetryAttempts         int           `yaml:"forecast_retry_attempts"`
	RetryDelay            time.Duration `yaml:"forecast_retry_delay"`
	RateLimitPerMinute    int           `yaml:"forecast_rate_limit_per_minute"`
	BreakerFailThreshold  int           `yaml:"breaker_failure_threshold"`
	BreakerRecoverSeconds int           `yaml:"breaker_recovery_seconds"`

	LocationLat  float64 `yaml:"location_lat"`
	LocationLon  float64 `yaml:"location_lon"`
	Timezone     string  `yaml:"timezone"`
	ForecastDays int     `yaml:"forecast_days"`
	HistoryDays  int     `yaml:"historical_days"`
	IntervalMins int     `yaml:"forecast_interval_minutes"`

	Horizons    []int `yaml:"horizons"`
	LookbackHrs int   `yaml:"lookback_hours"`
}

// AmbientConfig groups the non-domain concerns every teacher-style daemon
// carries: logging, and the C10 health/metrics surface.
type AmbientConfig struct {
	Debug       bool   `yaml:"debug"`
	MetricsAddr string `yaml:"metrics_addr"`
	HealthAddr  string `yaml:"health_addr"`
}

// Load reads and parses a YAML configuration file into a Config, applying
// defaults for anything left unset, then validates it. It does not look
// anything up by name afterward — every field is a concrete struct member.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrConfigInvalid, joinErrs(errs))
	}

	return cfg, nil
}

// Default returns a Config pre-populated with the defaults spec.md implies
// (the "auto" adapter, the documented batching/retry numbers). Load()
// overlays the YAML file on top of these.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			AdapterID:     "auto",
			ScanInterval:  0,
			RetryAttempts: 5,
			RetryDelay:    2 * time.Second,
			RetryBase:     2.0,
			FlushInterval: 10 * time.Second,
			MaxBufferSize: 500,
		},
		Store: StoreConfig{
			BatchSize:     100,
			FlushInterval: 10 * time.Second,
			MaxBufferSize: 5000,
			WriteTimeout:  10 * time.Second,
		},
		Forecast: ForecastConfig{
			Timeout:               5 * time.Second,
			RetryAttempts:         3,
			RetryDelay:            time.Second,
			RateLimitPerMinute:    60,
			BreakerFailThreshold:  3,
			BreakerRecoverSeconds: 60,
			ForecastDays:          3,
			HistoryDays:           7,
			IntervalMins:          60,
			Horizons:              []int{1, 6, 24, 48},
			LookbackHrs:           72,
		},
	}
}

func joinErrs(errs []error) string {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.Error()
	}
	return msg
}
