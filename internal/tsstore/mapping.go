package tsstore

import "github.com/chrissnell/ruuvitel/internal/ruuvi"

// PointsFromMeasurement maps one decoded Measurement onto up to four
// Points, split the way the sensor-point measurement names are split
// (environmental, motion, power, signal). A point whose field set would
// be empty is not emitted.
func PointsFromMeasurement(m *ruuvi.Measurement) []Point {
	tags := map[string]string{
		"sensor_mac":  m.MACAddress,
		"data_format": m.FormatTag.String(),
	}

	var points []Point

	env := map[string]interface{}{}
	if m.TemperatureC != nil {
		env["temperature_c"] = *m.TemperatureC
	}
	if m.HumidityPct != nil {
		env["humidity_pct"] = *m.HumidityPct
	}
	if m.PressureHPa != nil {
		env["pressure_hpa"] = *m.PressureHPa
	}
	if len(env) > 0 {
		points = append(points, Point{Measurement: MeasurementEnvironmental, Tags: tags, Fields: env, Timestamp: m.ObservedAt})
	}

	motion := map[string]interface{}{}
	if m.AccelXG != nil {
		motion["accel_x_g"] = *m.AccelXG
	}
	if m.AccelYG != nil {
		motion["accel_y_g"] = *m.AccelYG
	}
	if m.AccelZG != nil {
		motion["accel_z_g"] = *m.AccelZG
	}
	if m.MovementCount != nil {
		motion["movement_counter"] = *m.MovementCount
	}
	if len(motion) > 0 {
		points = append(points, Point{Measurement: MeasurementMotion, Tags: tags, Fields: motion, Timestamp: m.ObservedAt})
	}

	power := map[string]interface{}{}
	if m.BatteryV != nil {
		power["battery_v"] = *m.BatteryV
	}
	if m.TxPowerDBm != nil {
		power["tx_power_dbm"] = *m.TxPowerDBm
	}
	if len(power) > 0 {
		points = append(points, Point{Measurement: MeasurementPower, Tags: tags, Fields: power, Timestamp: m.ObservedAt})
	}

	signal := map[string]interface{}{}
	if m.RSSIDBm != nil {
		signal["rssi_dbm"] = *m.RSSIDBm
	}
	if m.Sequence != nil {
		signal["sequence"] = *m.Sequence
	}
	if len(signal) > 0 {
		points = append(points, Point{Measurement: MeasurementSignal, Tags: tags, Fields: signal, Timestamp: m.ObservedAt})
	}

	return points
}
