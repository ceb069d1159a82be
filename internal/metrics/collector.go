// Package metrics is C10: an HTTP server exposing GET /healthz and
// GET /metrics (Prometheus exposition), grounded on the teacher's use
// of gorilla/mux for routing and on the only pack repo that is itself a
// Ruuvi project exporting prometheus/client_golang metrics from decoded
// sensor data.
package metrics

import (
	"context"
	"time"

	"github.com/chrissnell/ruuvitel/internal/resilience"
	"github.com/chrissnell/ruuvitel/internal/sensorpipeline"
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineSource is the narrow slice of *sensorpipeline.Pipeline the
// collector pulls from.
type PipelineSource interface {
	State() sensorpipeline.State
	Stats() sensorpipeline.Snapshot
}

// OrchestratorSource is the narrow slice of *orchestrator.Orchestrator
// the collector pulls from. It's expressed here rather than imported
// directly to avoid internal/metrics depending on internal/orchestrator
// for nothing but this interface.
type OrchestratorSource interface {
	Health() (lastCycleAt time.Time, errs int)
	FetcherBreakerState() resilience.BreakerState
}

// StoreSource is the narrow slice of *tsstore.Client the collector
// pulls from.
type StoreSource interface {
	Health(ctx context.Context) error
}

// Sources bundles the three components /healthz and /metrics report on.
type Sources struct {
	Pipeline     PipelineSource
	Orchestrator OrchestratorSource
	Store        StoreSource
}

// collector implements prometheus.Collector, pulling live values from
// Sources on every scrape rather than maintaining its own copies —
// there is exactly one source of truth for each number.
type collector struct {
	sources Sources

	pointsWritten *prometheus.Desc
	pointsFailed  *prometheus.Desc
	decodeReject  *prometheus.Desc
	devicesSeen   *prometheus.Desc
	breakerState  *prometheus.Desc
	orchErrs      *prometheus.Desc
}

func newCollector(sources Sources) *collector {
	return &collector{
		sources: sources,
		pointsWritten: prometheus.NewDesc(
			"ruuvitel_points_written_total", "Total sensor points handed to the store.", nil, nil),
		pointsFailed: prometheus.NewDesc(
			"ruuvitel_points_failed_total", "Total sensor points that failed to write.", nil, nil),
		decodeReject: prometheus.NewDesc(
			"ruuvitel_decode_rejected_total", "Total advertisements rejected by the decoder.", nil, nil),
		devicesSeen: prometheus.NewDesc(
			"ruuvitel_devices_seen", "Distinct sensor MACs observed by the pipeline.", nil, nil),
		breakerState: prometheus.NewDesc(
			"ruuvitel_breaker_state", "Forecast fetcher circuit breaker state (0=closed, 1=open, 2=half_open).", nil, nil),
		orchErrs: prometheus.NewDesc(
			"ruuvitel_orchestrator_last_cycle_errors", "Number of failed steps in the orchestrator's most recent cycle.", nil, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pointsWritten
	ch <- c.pointsFailed
	ch <- c.decodeReject
	ch <- c.devicesSeen
	ch <- c.breakerState
	ch <- c.orchErrs
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	if c.sources.Pipeline != nil {
		snap := c.sources.Pipeline.Stats()
		ch <- prometheus.MustNewConstMetric(c.pointsWritten, prometheus.CounterValue, float64(snap.PointsWritten))
		ch <- prometheus.MustNewConstMetric(c.pointsFailed, prometheus.CounterValue, float64(snap.PointsFailed))
		ch <- prometheus.MustNewConstMetric(c.decodeReject, prometheus.CounterValue, float64(snap.DecodeRejects))
		ch <- prometheus.MustNewConstMetric(c.devicesSeen, prometheus.GaugeValue, float64(snap.DevicesSeen))
	}

	if c.sources.Orchestrator != nil {
		_, errs := c.sources.Orchestrator.Health()
		ch <- prometheus.MustNewConstMetric(c.orchErrs, prometheus.GaugeValue, float64(errs))
		ch <- prometheus.MustNewConstMetric(c.breakerState, prometheus.GaugeValue, float64(c.sources.Orchestrator.FetcherBreakerState()))
	}
}
