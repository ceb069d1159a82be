package erroranalysis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chrissnell/ruuvitel/internal/config"
	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/chrissnell/ruuvitel/internal/tsstore"
)

// source is the fixed provenance tag stamped on every emitted error
// point. The spec names "source" as a tag without describing its
// domain; pinned here to the one data source this engine ever reads
// from.
const source = "ruuvi"

// Engine runs one pass of the join described in spec.md §4.8: pull the
// hourly sensor and forecast series for the configured lookback window,
// join them per horizon, and write the resulting error points.
type Engine struct {
	store       *tsstore.Client
	horizons    []int
	lookbackHrs int
}

// New constructs an Engine bound to store and the forecast schedule's
// horizon/lookback configuration.
func New(store *tsstore.Client, cfg config.ForecastConfig) *Engine {
	return &Engine{store: store, horizons: cfg.Horizons, lookbackHrs: cfg.LookbackHrs}
}

// Run executes one analysis pass. A window with no data in either series
// is not an error — it returns cleanly having written nothing.
func (e *Engine) Run(ctx context.Context) (written int, err error) {
	end := time.Now().UTC()
	start := end.Add(-time.Duration(e.lookbackHrs) * time.Hour)

	sensor, err := e.store.Query(ctx, tsstore.Query{
		Measurement: tsstore.MeasurementEnvironmental,
		Start:       start,
		End:         end,
		GroupByHour: true,
	})
	if err != nil {
		return 0, fmt.Errorf("erroranalysis: querying sensor series: %w", err)
	}

	anyForecast := false
	for _, h := range e.horizons {
		forecast, err := e.store.Query(ctx, tsstore.Query{
			Measurement: tsstore.MeasurementForecast,
			Tags:        map[string]string{"forecast_horizon_hours": strconv.Itoa(h)},
			Start:       start,
			End:         end,
			GroupByHour: true,
		})
		if err != nil {
			return written, fmt.Errorf("erroranalysis: querying forecast series (horizon=%dh): %w", h, err)
		}
		if len(forecast) > 0 {
			anyForecast = true
		}

		if len(sensor) == 0 || len(forecast) == 0 {
			continue
		}

		rows := joinHourly(sensor, forecast)
		if len(rows) == 0 {
			continue
		}

		points := make([]tsstore.Point, 0, len(rows))
		for _, row := range rows {
			points = append(points, tsstore.Point{
				Measurement: tsstore.MeasurementForecastError,
				Tags: map[string]string{
					"source":                 source,
					"forecast_horizon_hours": strconv.Itoa(h),
				},
				Fields:    row.Fields,
				Timestamp: row.Time,
			})
		}

		if err := e.store.WritePoints(ctx, points); err != nil {
			return written, fmt.Errorf("erroranalysis: writing error points (horizon=%dh): %w", h, err)
		}
		written += len(points)
	}

	if len(sensor) == 0 && !anyForecast {
		log.Debug("erroranalysis: no sensor or forecast data in window, nothing to join")
		return 0, nil
	}
	if len(sensor) == 0 || !anyForecast {
		log.Warn("erroranalysis: only one of sensor/forecast series populated in window, skipping join")
	}

	return written, nil
}
