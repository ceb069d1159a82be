package config

import "fmt"

// Validate checks every field for internal consistency and returns the
// complete list of problems found, not just the first. A Config that
// passes Validate is safe to hand to every component unchanged for the
// lifetime of the process (or until the next successful reload).
func (c *Config) Validate() []error {
	var errs []error

	if c.Scan.AdapterID == "" {
		errs = append(errs, fmt.Errorf("scan.adapter_id must not be empty"))
	}
	if c.Scan.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("scan.retry_attempts must be >= 0"))
	}
	if c.Scan.RetryBase < 1.0 {
		errs = append(errs, fmt.Errorf("scan.retry_base must be >= 1.0"))
	}
	if c.Scan.MaxBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("scan.max_buffer_size must be > 0"))
	}
	if c.Scan.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("scan.flush_interval must be > 0"))
	}

	if c.Store.Endpoint == "" {
		errs = append(errs, fmt.Errorf("store.store_endpoint must not be empty"))
	}
	if c.Store.Bucket == "" {
		errs = append(errs, fmt.Errorf("store.store_bucket must not be empty"))
	}
	if c.Store.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("store.batch_size must be > 0"))
	}
	if c.Store.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("store.flush_interval must be > 0"))
	}
	if c.Store.MaxBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("store.max_buffer_size must be > 0"))
	}

	if c.Forecast.Endpoint == "" {
		errs = append(errs, fmt.Errorf("forecast.forecast_endpoint must not be empty"))
	}
	if c.Forecast.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("forecast.forecast_timeout must be > 0"))
	}
	if c.Forecast.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("forecast.forecast_retry_attempts must be >= 0"))
	}
	if c.Forecast.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("forecast.forecast_rate_limit_per_minute must be > 0"))
	}
	if c.Forecast.BreakerFailThreshold <= 0 {
		errs = append(errs, fmt.Errorf("forecast.breaker_failure_threshold must be > 0"))
	}
	if c.Forecast.BreakerRecoverSeconds <= 0 {
		errs = append(errs, fmt.Errorf("forecast.breaker_recovery_seconds must be > 0"))
	}
	if c.Forecast.LocationLat < -90 || c.Forecast.LocationLat > 90 {
		errs = append(errs, fmt.Errorf("forecast.location_lat must be within [-90, 90]"))
	}
	if c.Forecast.LocationLon < -180 || c.Forecast.LocationLon > 180 {
		errs = append(errs, fmt.Errorf("forecast.location_lon must be within [-180, 180]"))
	}
	if c.Forecast.Timezone == "" {
		errs = append(errs, fmt.Errorf("forecast.timezone must not be empty"))
	}
	if c.Forecast.ForecastDays <= 0 {
		errs = append(errs, fmt.Errorf("forecast.forecast_days must be > 0"))
	}
	if c.Forecast.HistoryDays <= 0 {
		errs = append(errs, fmt.Errorf("forecast.historical_days must be > 0"))
	}
	if c.Forecast.IntervalMins <= 0 {
		errs = append(errs, fmt.Errorf("forecast.forecast_interval_minutes must be > 0"))
	}
	if len(c.Forecast.Horizons) == 0 {
		errs = append(errs, fmt.Errorf("forecast.horizons must list at least one hour offset"))
	}
	for _, h := range c.Forecast.Horizons {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("forecast.horizons entries must be > 0, got %d", h))
			break
		}
	}
	if c.Forecast.LookbackHrs <= 0 {
		errs = append(errs, fmt.Errorf("forecast.lookback_hours must be > 0"))
	}

	return errs
}
