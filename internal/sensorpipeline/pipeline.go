// Package sensorpipeline wires the scan source, the decoder, the dedup
// buffer and the time-series client into the connect/run/backoff state
// machine the BLE sensor side of the daemon runs as.
package sensorpipeline

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/chrissnell/ruuvitel/internal/blescan"
	"github.com/chrissnell/ruuvitel/internal/config"
	"github.com/chrissnell/ruuvitel/internal/constants"
	"github.com/chrissnell/ruuvitel/internal/dedup"
	"github.com/chrissnell/ruuvitel/internal/identity"
	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/chrissnell/ruuvitel/internal/ruuvi"
	"github.com/chrissnell/ruuvitel/internal/tsstore"
)

// ScanSource is the narrow slice of *blescan.Scanner the pipeline needs.
type ScanSource interface {
	Stream(ctx context.Context) (<-chan blescan.Event, error)
	Stop() error
}

// SeriesStore is the narrow slice of *tsstore.Client the pipeline needs.
type SeriesStore interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Buffer(p tsstore.Point)
	Flush(ctx context.Context) error
}

const maxConsecutiveErrorsForBackoffCap = 5

// Pipeline drives one scan source + one store through the Idle ->
// Connecting -> Running -> (Faulted ->) Draining -> Idle machine. It is
// generalized from the teacher's davis.Station connect/retry/reconnect
// loop (mutex-guarded connecting/connected flags) to a source/sink pair.
type Pipeline struct {
	scan  ScanSource
	store SeriesStore
	ident identity.Store
	cfg   config.ScanConfig

	mu    sync.RWMutex
	state State
	stats *Stats
}

// New constructs a Pipeline. The dedup buffer's onFlush forwards each
// measurement in a flush batch to the store via PointsFromMeasurement,
// then Buffer()s each point — the store's own batching (internal
// batch_size) decides when an actual write happens.
func New(scan ScanSource, store SeriesStore, ident identity.Store, cfg config.ScanConfig) *Pipeline {
	return &Pipeline{
		scan:  scan,
		store: store,
		ident: ident,
		cfg:   cfg,
		state: Idle,
		stats: newStats(),
	}
}

// State reports the pipeline's current state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Stats returns a point-in-time snapshot of the pipeline's counters.
func (p *Pipeline) Stats() Snapshot {
	return p.stats.Snapshot()
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run drives the pipeline until ctx is cancelled, at which point it
// transitions through Draining back to Idle and returns. A consecutive
// run of errors from either the scan source or the store trips the
// pipeline into Faulted, where it backs off exponentially before
// re-entering Connecting.
func (p *Pipeline) Run(ctx context.Context) error {
	p.setState(Connecting)

	consecutiveErrors := 0
	for {
		if ctx.Err() != nil {
			p.setState(Idle)
			return nil
		}

		err := p.connectAndRun(ctx)
		if err == nil {
			p.setState(Idle)
			return nil
		}

		consecutiveErrors++
		log.Warnf("sensorpipeline: error #%d, entering FAULTED: %v", consecutiveErrors, err)
		p.setState(Faulted)

		backoff := backoffDuration(p.cfg.RetryDelay, p.cfg.RetryBase, consecutiveErrors)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			p.setState(Idle)
			return nil
		}
		p.setState(Connecting)
	}
}

// backoffDuration computes base * retryBase^min(n,5), matching spec.md
// §4.5's capped exponential backoff.
func backoffDuration(base time.Duration, retryBase float64, n int) time.Duration {
	if n > maxConsecutiveErrorsForBackoffCap {
		n = maxConsecutiveErrorsForBackoffCap
	}
	factor := math.Pow(retryBase, float64(n))
	return time.Duration(float64(base) * factor)
}

// connectAndRun opens the store then the scan source, runs the dedup
// buffer's flush loop and the decode/insert loop until ctx is cancelled
// or a fault occurs, then drains. A nil return means a clean shutdown
// (ctx cancelled); a non-nil return means a fault that should trip
// Faulted and retry.
func (p *Pipeline) connectAndRun(ctx context.Context) error {
	if err := p.store.Connect(ctx); err != nil {
		return err
	}

	buf := dedup.New(p.cfg.MaxBufferSize, p.cfg.FlushInterval, p.makeFlushFunc())

	events, err := p.scan.Stream(ctx)
	if err != nil {
		_ = p.store.Disconnect()
		return err
	}

	p.setState(Running)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf.Run(runCtx)
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Scan source ended on its own (adapter fault): treat as
				// an error so the caller trips Faulted and retries.
				cancelRun()
				wg.Wait()
				_ = p.store.Disconnect()
				return blescan.ErrScannerInit
			}
			p.handleEvent(ev, buf)

		case <-ctx.Done():
			p.setState(Draining)
			_ = p.scan.Stop()
			cancelRun()
			wg.Wait()
			buf.Flush()
			if err := p.store.Flush(context.Background()); err != nil {
				log.Warnf("sensorpipeline: final flush on shutdown failed: %v", err)
			}
			_ = p.store.Disconnect()
			return nil
		}
	}
}

func (p *Pipeline) handleEvent(ev blescan.Event, buf *dedup.Buffer) {
	mfg, ok := ev.ManufacturerData[constants.RuuviManufacturerID]
	if !ok {
		return
	}

	m, err := ruuvi.Decode(constants.RuuviManufacturerID, mfg)
	if err != nil {
		p.stats.recordDecodeReject()
		return
	}
	if m.MACAddress == "" {
		m.MACAddress = ev.Address
	}
	m.RSSIDBm = &ev.RSSIDBm

	p.stats.recordScan(m.MACAddress)
	p.ident.Touch(m.MACAddress, m.ObservedAt)
	buf.Insert(m.MACAddress, m)
}

// makeFlushFunc returns the dedup buffer's FlushFunc: it maps every
// measurement in the batch to points and hands them to the store.
func (p *Pipeline) makeFlushFunc() dedup.FlushFunc {
	return func(batch map[string]*ruuvi.Measurement) {
		written := 0
		for _, m := range batch {
			points := tsstore.PointsFromMeasurement(m)
			for _, pt := range points {
				p.store.Buffer(pt)
				written++
			}
		}
		if written > 0 {
			p.stats.recordWrite(written)
		}
	}
}
