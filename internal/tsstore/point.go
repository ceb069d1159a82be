// Package tsstore is the time-series client: connect, batched write,
// query, and health-check against a TimescaleDB-backed store. It is
// deliberately a thin client contract, not a store implementation — the
// schema it creates exists only so the client's own writes and queries
// have somewhere to land.
package tsstore

import "time"

// Point is one row bound for the store: a measurement name, an indexed
// tag set, an unindexed field set, and a timestamp. Tags are always
// strings; fields carry the actual numeric/boolean payload.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Timestamp   time.Time
}

// Record is one row of a query result.
type Record struct {
	Time   time.Time
	Tags   map[string]string
	Fields map[string]interface{}
}

// Query is the structured stand-in for a literal query string. Narrowing
// the client's read surface to this shape is what keeps the contract a
// client contract rather than a second store implementation.
type Query struct {
	Measurement string
	Tags        map[string]string
	Start       time.Time
	End         time.Time
	// GroupByHour, when true, buckets results to the hour and averages
	// each field within the bucket — the shape internal/erroranalysis
	// needs for its hourly aggregation.
	GroupByHour bool
}

// Well-known measurement names, per the sensor-point split and the
// forecast/error buckets.
const (
	MeasurementEnvironmental = "ruuvi_environmental"
	MeasurementMotion        = "ruuvi_motion"
	MeasurementPower         = "ruuvi_power"
	MeasurementSignal        = "ruuvi_signal"
	MeasurementForecast      = "weather_forecasts"
	MeasurementForecastError = "weather_forecast_errors"
)
