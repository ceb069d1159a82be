package tsstore

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const hourDuration = time.Hour

func timeFromUnixHour(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}

// bucketHourly groups records by truncated hour and averages each
// numeric field within the bucket. Non-numeric field values are dropped
// from the aggregate (there are none in today's point schema, but a
// future boolean field should not crash the bucketer).
func bucketHourly(records []Record) []Record {
	type bucket struct {
		hour   int64
		values map[string][]float64
		tags   map[string]string
	}

	order := make([]int64, 0)
	buckets := make(map[int64]*bucket)

	for _, r := range records {
		hour := r.Time.Truncate(hourDuration).Unix()
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{hour: hour, values: make(map[string][]float64), tags: r.Tags}
			buckets[hour] = b
			order = append(order, hour)
		}
		for k, v := range r.Fields {
			if f, ok := toFloat64(v); ok {
				b.values[k] = append(b.values[k], f)
			}
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]Record, 0, len(order))
	for _, hour := range order {
		b := buckets[hour]
		fields := make(map[string]interface{}, len(b.values))
		for k, vals := range b.values {
			fields[k] = stat.Mean(vals, nil)
		}
		out = append(out, Record{
			Time:   timeFromUnixHour(hour),
			Tags:   b.tags,
			Fields: fields,
		})
	}
	return out
}

func toFloat64(v interface{}) (float64, bool) {
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
