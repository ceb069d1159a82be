package tsstore

import (
	"testing"
	"time"

	"github.com/chrissnell/ruuvitel/internal/ruuvi"
)

func TestPointsFromMeasurement_SplitsByPhysicalQuantity(t *testing.T) {
	temp, hum, press := 20.0, 25.0, 600.0
	accelX := 1.0
	battery := 3.2
	tx := 8
	movement := uint8(42)
	sequence := uint16(256)

	m := &ruuvi.Measurement{
		FormatTag:     ruuvi.Format5,
		MACAddress:    "AA:BB:CC:DD:EE:FF",
		TemperatureC:  &temp,
		HumidityPct:   &hum,
		PressureHPa:   &press,
		AccelXG:       &accelX,
		BatteryV:      &battery,
		TxPowerDBm:    &tx,
		MovementCount: &movement,
		Sequence:      &sequence,
		ObservedAt:    time.Now(),
	}

	points := PointsFromMeasurement(m)

	byMeasurement := make(map[string]Point)
	for _, p := range points {
		byMeasurement[p.Measurement] = p
	}

	if len(points) != 4 {
		t.Fatalf("got %d points, want 4 (environmental, motion, power, signal)", len(points))
	}

	env, ok := byMeasurement[MeasurementEnvironmental]
	if !ok {
		t.Fatal("missing environmental point")
	}
	if env.Fields["temperature_c"] != 20.0 || env.Fields["humidity_pct"] != 25.0 || env.Fields["pressure_hpa"] != 600.0 {
		t.Errorf("environmental fields = %+v", env.Fields)
	}
	if env.Tags["sensor_mac"] != "AA:BB:CC:DD:EE:FF" || env.Tags["data_format"] != "FORMAT_5" {
		t.Errorf("environmental tags = %+v", env.Tags)
	}

	if _, ok := byMeasurement[MeasurementSignal]; !ok {
		t.Error("missing signal point (sequence was set)")
	}
}

func TestPointsFromMeasurement_OmitsEmptyPoints(t *testing.T) {
	temp := 20.0
	m := &ruuvi.Measurement{
		FormatTag:    ruuvi.Format5,
		TemperatureC: &temp,
		ObservedAt:   time.Now(),
	}

	points := PointsFromMeasurement(m)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1 (only environmental has data)", len(points))
	}
	if points[0].Measurement != MeasurementEnvironmental {
		t.Errorf("Measurement = %q, want %q", points[0].Measurement, MeasurementEnvironmental)
	}
}
