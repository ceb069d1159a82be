package forecast

import (
	"fmt"

	"github.com/chrissnell/ruuvitel/internal/tsstore"
)

// Points flattens a Batch into tsstore.Points targeting the forecast
// bucket, one per record. Every point carries location_lat, location_lon,
// timezone, retrieved_at, data_type and is_forecast tags, plus
// forecast_horizon_hours so internal/erroranalysis can filter a forecast
// series down to a single horizon before joining it against sensor data.
// Records with no populated field are skipped; they'd write an empty row.
func Points(b *Batch) []tsstore.Point {
	points := make([]tsstore.Point, 0, len(b.Records))

	tags := map[string]string{
		"location_lat": fmt.Sprintf("%.6f", b.LocationLat),
		"location_lon": fmt.Sprintf("%.6f", b.LocationLon),
		"timezone":     b.Timezone,
		"retrieved_at": b.RetrievedAt.UTC().Format("2006-01-02T15:04:05Z"),
		"data_type":    string(b.DataType),
	}

	for _, r := range b.Records {
		fields := map[string]interface{}{}
		if r.TemperatureC != nil {
			fields["temperature_c"] = *r.TemperatureC
		}
		if r.HumidityPct != nil {
			fields["humidity_pct"] = *r.HumidityPct
		}
		if r.PressureHPa != nil {
			fields["pressure_hpa"] = *r.PressureHPa
		}
		if r.WindSpeed != nil {
			fields["wind_speed"] = *r.WindSpeed
		}
		if r.WindDir != nil {
			fields["wind_dir"] = *r.WindDir
		}
		if r.Precipitation != nil {
			fields["precipitation"] = *r.Precipitation
		}
		if r.CloudCover != nil {
			fields["cloud_cover"] = *r.CloudCover
		}
		if r.Visibility != nil {
			fields["visibility"] = *r.Visibility
		}
		if r.UVIndex != nil {
			fields["uv_index"] = *r.UVIndex
		}
		if r.WeatherCode != nil {
			fields["weather_code"] = *r.WeatherCode
		}
		if len(fields) == 0 {
			continue
		}

		pointTags := make(map[string]string, len(tags)+2)
		for k, v := range tags {
			pointTags[k] = v
		}
		pointTags["is_forecast"] = fmt.Sprintf("%t", r.IsForecast)
		pointTags["forecast_horizon_hours"] = fmt.Sprintf("%d", b.HorizonHours(r))

		points = append(points, tsstore.Point{
			Measurement: tsstore.MeasurementForecast,
			Tags:        pointTags,
			Fields:      fields,
			Timestamp:   r.ValidAt,
		})
	}

	return points
}
