package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chrissnell/ruuvitel/internal/config"
	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/chrissnell/ruuvitel/internal/resilience"
)

// rawHourly is the hourly-array response shape both the /forecast and
// /historical-weather-api endpoints return: one "time" list plus a
// parallel list per field, index-aligned.
type rawHourly struct {
	Time          []string  `json:"time"`
	TemperatureC  []float64 `json:"temperature_c"`
	HumidityPct   []float64 `json:"humidity_pct"`
	PressureHPa   []float64 `json:"pressure_hpa"`
	WindSpeed     []float64 `json:"wind_speed"`
	WindDir       []float64 `json:"wind_dir"`
	Precipitation []float64 `json:"precipitation"`
	CloudCover    []float64 `json:"cloud_cover"`
	Visibility    []float64 `json:"visibility"`
	UVIndex       []float64 `json:"uv_index"`
	WeatherCode   []string  `json:"weather_code"`
}

// rawResponse wraps rawHourly with the envelope fields the endpoints share.
type rawResponse struct {
	Timezone string    `json:"timezone"`
	Hourly   rawHourly `json:"hourly"`
}

// Fetcher calls the forecast provider's HTTP API, wrapped in the rate
// limiter and circuit breaker spec.md's resilience section requires
// around every upstream call.
type Fetcher struct {
	cfg     config.ForecastConfig
	client  *http.Client
	limiter *resilience.RateLimiter
	breaker *resilience.Breaker
}

// NewFetcher constructs a Fetcher from the forecast section of the config.
func NewFetcher(cfg config.ForecastConfig) *Fetcher {
	return &Fetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: resilience.NewRateLimiter(cfg.RateLimitPerMinute),
		breaker: resilience.NewBreaker(cfg.BreakerFailThreshold, time.Duration(cfg.BreakerRecoverSeconds)*time.Second),
	}
}

// BreakerState reports the fetcher's circuit breaker state, for C10's
// /metrics exposition.
func (f *Fetcher) BreakerState() resilience.BreakerState {
	return f.breaker.State()
}

// FetchForecast retrieves the forward-looking forecast for forecast_days
// ahead from the /forecast endpoint.
func (f *Fetcher) FetchForecast(ctx context.Context) (*Batch, error) {
	v := url.Values{}
	v.Set("latitude", fmt.Sprintf("%.6f", f.cfg.LocationLat))
	v.Set("longitude", fmt.Sprintf("%.6f", f.cfg.LocationLon))
	v.Set("timezone", f.cfg.Timezone)
	v.Set("forecast_days", fmt.Sprintf("%d", f.cfg.ForecastDays))

	retrievedAt := time.Now().UTC()
	raw, err := f.get(ctx, "/forecast", v)
	if err != nil {
		return nil, err
	}
	return toBatch(raw, f.cfg, DataTypeForecast, retrievedAt, true)
}

// FetchHistorical retrieves past observations for the dates from start
// to end from the /historical-weather-api endpoint, for backfilling error
// analysis. The window comes from the caller; historical_days is not read
// here.
func (f *Fetcher) FetchHistorical(ctx context.Context, start, end time.Time) (*Batch, error) {
	v := url.Values{}
	v.Set("latitude", fmt.Sprintf("%.6f", f.cfg.LocationLat))
	v.Set("longitude", fmt.Sprintf("%.6f", f.cfg.LocationLon))
	v.Set("timezone", f.cfg.Timezone)
	v.Set("start_date", start.Format("2006-01-02"))
	v.Set("end_date", end.Format("2006-01-02"))

	retrievedAt := time.Now().UTC()
	raw, err := f.get(ctx, "/historical-weather-api", v)
	if err != nil {
		return nil, err
	}
	return toBatch(raw, f.cfg, DataTypeHistory, retrievedAt, false)
}

// get issues one GET request through the rate limiter and circuit
// breaker, retrying 429s and 5xx responses up to RetryAttempts times
// with the configured delay; any other 4xx fails immediately.
func (f *Fetcher) get(ctx context.Context, path string, v url.Values) (*rawResponse, error) {
	if err := f.breaker.Allow(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := f.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		reqURL := f.cfg.Endpoint + path + "?" + v.Encode()
		req, err := http.NewRequest(http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building forecast request: %w", err)
		}
		req = req.WithContext(ctx)

		log.Debugf("requesting forecast data: %s", reqURL)
		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("forecast request failed: %w", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("reading forecast response: %w", readErr)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("forecast provider returned %s", resp.Status)
			continue
		}
		if resp.StatusCode >= 400 {
			f.breaker.Failure()
			return nil, fmt.Errorf("forecast provider rejected request: %s: %s", resp.Status, string(body))
		}

		out := &rawResponse{}
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
			f.breaker.Failure()
			return nil, fmt.Errorf("decoding forecast response: %w", err)
		}

		f.breaker.Success()
		return out, nil
	}

	f.breaker.Failure()
	return nil, fmt.Errorf("forecast request exhausted %d retries: %w", f.cfg.RetryAttempts, lastErr)
}

// toBatch flattens the hourly-array response into a Batch of Records,
// skipping any index whose timestamp fails to parse.
func toBatch(raw *rawResponse, cfg config.ForecastConfig, dt DataType, retrievedAt time.Time, isForecast bool) (*Batch, error) {
	tz := raw.Timezone
	if tz == "" {
		tz = cfg.Timezone
	}

	b := &Batch{
		LocationLat: cfg.LocationLat,
		LocationLon: cfg.LocationLon,
		Timezone:    tz,
		DataType:    dt,
		RetrievedAt: retrievedAt,
	}

	h := raw.Hourly
	for i, ts := range h.Time {
		validAt, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			log.Debugf("skipping forecast entry with unparseable timestamp %q: %v", ts, err)
			continue
		}
		rec := Record{ValidAt: validAt, IsForecast: isForecast}
		if i < len(h.TemperatureC) {
			rec.TemperatureC = &h.TemperatureC[i]
		}
		if i < len(h.HumidityPct) {
			rec.HumidityPct = &h.HumidityPct[i]
		}
		if i < len(h.PressureHPa) {
			rec.PressureHPa = &h.PressureHPa[i]
		}
		if i < len(h.WindSpeed) {
			rec.WindSpeed = &h.WindSpeed[i]
		}
		if i < len(h.WindDir) {
			rec.WindDir = &h.WindDir[i]
		}
		if i < len(h.Precipitation) {
			rec.Precipitation = &h.Precipitation[i]
		}
		if i < len(h.CloudCover) {
			rec.CloudCover = &h.CloudCover[i]
		}
		if i < len(h.Visibility) {
			rec.Visibility = &h.Visibility[i]
		}
		if i < len(h.UVIndex) {
			rec.UVIndex = &h.UVIndex[i]
		}
		if i < len(h.WeatherCode) {
			rec.WeatherCode = &h.WeatherCode[i]
		}
		b.Records = append(b.Records, rec)
	}

	return b, nil
}
