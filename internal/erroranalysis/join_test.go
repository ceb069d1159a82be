package erroranalysis

import (
	"testing"
	"time"

	"github.com/chrissnell/ruuvitel/internal/tsstore"
)

func hourAt(h int) time.Time {
	return time.Date(2026, 1, 1, h, 0, 0, 0, time.UTC)
}

func rec(hour int, fields map[string]interface{}) tsstore.Record {
	return tsstore.Record{Time: hourAt(hour), Fields: fields}
}

// Scenario E — Error join.
func TestJoinHourly_ScenarioE(t *testing.T) {
	sensor := []tsstore.Record{
		rec(12, map[string]interface{}{"temperature_c": 20.0}),
		rec(13, map[string]interface{}{"temperature_c": 21.0}),
		rec(14, map[string]interface{}{"temperature_c": 22.0}),
	}
	forecast := []tsstore.Record{
		rec(13, map[string]interface{}{"temperature_c": 19.5}),
		rec(14, map[string]interface{}{"temperature_c": 21.5}),
		rec(15, map[string]interface{}{"temperature_c": 22.5}),
	}

	rows := joinHourly(sensor, forecast)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	byHour := make(map[int]tsstore.Record)
	for _, r := range rows {
		byHour[r.Time.Hour()] = r
	}

	row13, ok := byHour[13]
	if !ok {
		t.Fatal("missing row for hour 13")
	}
	if got := row13.Fields["temp_signed_error"]; got != -1.5 {
		t.Errorf("hour 13 temp_signed_error = %v, want -1.5", got)
	}
	if got := row13.Fields["temp_abs_error"]; got != 1.5 {
		t.Errorf("hour 13 temp_abs_error = %v, want 1.5", got)
	}

	row14, ok := byHour[14]
	if !ok {
		t.Fatal("missing row for hour 14")
	}
	if got := row14.Fields["temp_signed_error"]; got != -0.5 {
		t.Errorf("hour 14 temp_signed_error = %v, want -0.5", got)
	}
	if got := row14.Fields["temp_abs_error"]; got != 0.5 {
		t.Errorf("hour 14 temp_abs_error = %v, want 0.5", got)
	}
}

// Error symmetry: abs_error = |signed_error| and sign(signed_error) =
// sign(forecast - actual), for every emitted row and metric.
func TestJoinHourly_ErrorSymmetry(t *testing.T) {
	sensor := []tsstore.Record{rec(1, map[string]interface{}{"humidity_pct": 50.0})}
	forecast := []tsstore.Record{rec(1, map[string]interface{}{"humidity_pct": 44.0})}

	rows := joinHourly(sensor, forecast)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	signed := rows[0].Fields["humidity_signed_error"].(float64)
	abs := rows[0].Fields["humidity_abs_error"].(float64)

	wantSigned := 44.0 - 50.0
	if signed != wantSigned {
		t.Errorf("signed_error = %v, want %v", signed, wantSigned)
	}
	if abs != -wantSigned {
		t.Errorf("abs_error = %v, want %v (|signed_error|)", abs, -wantSigned)
	}
}

// Join with zero overlap returns empty output without error.
func TestJoinHourly_ZeroOverlap(t *testing.T) {
	sensor := []tsstore.Record{rec(1, map[string]interface{}{"temperature_c": 20.0})}
	forecast := []tsstore.Record{rec(5, map[string]interface{}{"temperature_c": 19.0})}

	rows := joinHourly(sensor, forecast)
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0 for non-overlapping series", len(rows))
	}
}

// Alignment correctness: every emitted row's time equals a time present
// in both input series, never a synthesised one.
func TestJoinHourly_NoSynthesisedRows(t *testing.T) {
	sensor := []tsstore.Record{
		rec(1, map[string]interface{}{"temperature_c": 20.0}),
		rec(2, map[string]interface{}{"temperature_c": 21.0}),
	}
	forecast := []tsstore.Record{
		rec(2, map[string]interface{}{"temperature_c": 20.5}),
		rec(3, map[string]interface{}{"temperature_c": 22.0}),
	}

	rows := joinHourly(sensor, forecast)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Time.Hour() != 2 {
		t.Errorf("emitted row at hour %d, want 2 (the only hour present in both series)", rows[0].Time.Hour())
	}
}

func TestJoinHourly_PartialMetricsOmitMissingOnes(t *testing.T) {
	sensor := []tsstore.Record{rec(1, map[string]interface{}{"temperature_c": 20.0, "humidity_pct": 50.0})}
	forecast := []tsstore.Record{rec(1, map[string]interface{}{"temperature_c": 19.0})} // no humidity

	rows := joinHourly(sensor, forecast)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if _, ok := rows[0].Fields["temp_signed_error"]; !ok {
		t.Error("expected temp_signed_error to be present")
	}
	if _, ok := rows[0].Fields["humidity_signed_error"]; ok {
		t.Error("expected humidity_signed_error to be absent (forecast had no humidity)")
	}
}

func TestJoinHourly_RowsWithNoPopulatedMetricDiscarded(t *testing.T) {
	sensor := []tsstore.Record{rec(1, map[string]interface{}{"humidity_pct": 50.0})}
	forecast := []tsstore.Record{rec(1, map[string]interface{}{"temperature_c": 19.0})}

	rows := joinHourly(sensor, forecast)
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0 (no metric present on both sides)", len(rows))
	}
}
