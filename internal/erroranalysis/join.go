// Package erroranalysis is the error-join engine (C8): it pulls the
// hourly-aggregated sensor and forecast series back out of the
// time-series store and emits per-horizon forecast-error points.
package erroranalysis

import (
	"math"

	"github.com/chrissnell/ruuvitel/internal/tsstore"
)

// metricPair names one physical quantity's sensor field, its matching
// forecast field, and the abs/signed error field names it produces.
type metricPair struct {
	sensorField, forecastField string
	absField, signedField      string
}

var metrics = []metricPair{
	{"temperature_c", "temperature_c", "temp_abs_error", "temp_signed_error"},
	{"humidity_pct", "humidity_pct", "humidity_abs_error", "humidity_signed_error"},
	{"pressure_hpa", "pressure_hpa", "pressure_abs_error", "pressure_signed_error"},
}

// joinHourly inner-joins sensor and forecast records on their (already
// hour-truncated) timestamp and emits one error row per joined instant
// with a populated metric subset. An hour missing from either series
// yields no row; rows are never synthesised — there is no "fill".
func joinHourly(sensor, forecast []tsstore.Record) []tsstore.Record {
	byHour := make(map[int64]tsstore.Record, len(sensor))
	for _, r := range sensor {
		byHour[r.Time.Unix()] = r
	}

	var out []tsstore.Record
	for _, f := range forecast {
		s, ok := byHour[f.Time.Unix()]
		if !ok {
			continue
		}

		fields := make(map[string]interface{})
		for _, m := range metrics {
			actual, okA := toFloat(s.Fields[m.sensorField])
			predicted, okF := toFloat(f.Fields[m.forecastField])
			if !okA || !okF || math.IsNaN(actual) || math.IsNaN(predicted) {
				continue
			}
			signed := predicted - actual
			fields[m.signedField] = signed
			fields[m.absField] = math.Abs(signed)
		}
		if len(fields) == 0 {
			continue
		}

		out = append(out, tsstore.Record{Time: f.Time, Fields: fields})
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
