// Package orchestrator drives the periodic "fetch -> store -> join ->
// analyze" cycle: pull a forecast, persist it, then run the error join
// over the configured lookback window. Grounded on internal/app.App's
// root-context/WaitGroup shutdown and aerisweather's
// refreshForecastPeriodically fire-once-then-ticker loop.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/ruuvitel/internal/config"
	"github.com/chrissnell/ruuvitel/internal/erroranalysis"
	"github.com/chrissnell/ruuvitel/internal/forecast"
	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/chrissnell/ruuvitel/internal/resilience"
	"github.com/chrissnell/ruuvitel/internal/tsstore"
)

// Orchestrator owns the forecast fetcher and the error-join engine and
// runs them on the configured interval. A single cycle is: fetch
// forecast, write forecast points, run the join. Each step's failure is
// isolated — it's logged and the next step still runs.
type Orchestrator struct {
	store *tsstore.Client

	mu      sync.RWMutex
	cfg     config.ForecastConfig
	fetcher *forecast.Fetcher
	engine  *erroranalysis.Engine

	lastCycleAt   time.Time
	lastCycleErrs int
}

// New constructs an Orchestrator bound to store and the forecast config.
func New(store *tsstore.Client, cfg config.ForecastConfig) *Orchestrator {
	o := &Orchestrator{store: store}
	o.Reload(cfg)
	return o
}

// Reload replaces the fetcher and join engine with ones built from a
// freshly re-read config, per spec.md §4.9's "reload re-initializes the
// affected components." It never tears down the store itself — only
// the forecast section is owned here.
func (o *Orchestrator) Reload(cfg config.ForecastConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = cfg
	o.fetcher = forecast.NewFetcher(cfg)
	o.engine = erroranalysis.New(o.store, cfg)
}

// Run fires one cycle immediately, then on every configured interval,
// until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	o.runCycle(ctx)

	interval := o.intervalDuration()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.runCycle(ctx)
		case <-ctx.Done():
			log.Info("orchestrator: context cancelled, stopping cycle loop")
			return
		}
	}
}

func (o *Orchestrator) intervalDuration() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.cfg.IntervalMins <= 0 {
		return time.Hour
	}
	return time.Duration(o.cfg.IntervalMins) * time.Minute
}

// runCycle executes fetch -> write -> join, each step isolated: a
// failure in one does not prevent the next from running, matching
// spec.md §4.9's "the join still runs even if today's fetch failed."
func (o *Orchestrator) runCycle(ctx context.Context) {
	o.mu.RLock()
	fetcher := o.fetcher
	engine := o.engine
	cfg := o.cfg
	o.mu.RUnlock()

	errs := 0

	batch, err := fetcher.FetchForecast(ctx)
	if err != nil {
		log.Warnf("orchestrator: forecast fetch failed: %v", err)
		errs++
	} else {
		points := forecast.Points(batch)
		if err := o.store.WritePoints(ctx, points); err != nil {
			log.Warnf("orchestrator: writing forecast points failed: %v", err)
			errs++
		} else {
			log.Debugf("orchestrator: wrote %d forecast points (forecast_days=%d)", len(points), cfg.ForecastDays)
		}
	}

	written, err := engine.Run(ctx)
	if err != nil {
		log.Warnf("orchestrator: error join failed: %v", err)
		errs++
	} else if written > 0 {
		log.Debugf("orchestrator: wrote %d forecast-error points", written)
	}

	o.mu.Lock()
	o.lastCycleAt = time.Now()
	o.lastCycleErrs = errs
	o.mu.Unlock()
}

// Health reports whether the most recent cycle completed without any
// step failing, for C10's /healthz aggregation.
func (o *Orchestrator) Health() (lastCycleAt time.Time, errs int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastCycleAt, o.lastCycleErrs
}

// FetcherBreakerState reports the forecast fetcher's circuit breaker
// state, for C10's /metrics exposition.
func (o *Orchestrator) FetcherBreakerState() resilience.BreakerState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.fetcher.BreakerState()
}
