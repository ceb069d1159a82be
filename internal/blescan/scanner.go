// Package blescan is the scan source: it knows how to drive a BLE
// adapter's continuous-scan mode and turn raw advertisements into a
// channel of events. It knows nothing about Ruuvi's wire format —
// filtering by manufacturer ID happens in internal/ruuvi.
package blescan

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/ruuvitel/internal/log"
	"tinygo.org/x/bluetooth"
)

// Event is one BLE advertisement, reduced to the fields the decoder
// needs: the sender's address, its RSSI, and the raw manufacturer-data
// map keyed by company ID.
type Event struct {
	Address          string
	RSSIDBm          int
	ManufacturerData map[uint16][]byte
}

// adapter is the narrow slice of *bluetooth.Adapter this package needs.
// *bluetooth.Adapter satisfies it directly; tests substitute a fake.
type adapter interface {
	Enable() error
	Scan(func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
}

// Scanner drives one BLE adapter's scan/stop cycle. It is safe to Stop
// and re-Stream after a Stop, but Stream fails with ErrScannerBusy if
// called while a scan is already running.
type Scanner struct {
	adapter       adapter
	retryAttempts int
	retryDelay    time.Duration

	mu       sync.Mutex
	scanning bool
	cancel   func()
}

// New constructs a Scanner bound to the given adapter. Pass
// bluetooth.DefaultAdapter in production; tests pass a fake.
func New(a adapter, retryAttempts int, retryDelay time.Duration) *Scanner {
	return &Scanner{adapter: a, retryAttempts: retryAttempts, retryDelay: retryDelay}
}

// Stream starts a continuous scan and returns a channel of events. The
// channel is closed when ctx is cancelled or Stop is called. Calling
// Stream again before that happens returns ErrScannerBusy.
//
// Cancellation must cause the underlying scan to terminate within one
// advertisement interval: the scan callback checks ctx on every
// invocation and calls StopScan as soon as it observes cancellation, in
// addition to the explicit ctx-cancel goroutine below.
func (s *Scanner) Stream(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, ErrScannerBusy
	}
	streamCtx, cancel := context.WithCancel(ctx)
	s.scanning = true
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.enableWithRetry(); err != nil {
		s.mu.Lock()
		s.scanning = false
		s.cancel = nil
		s.mu.Unlock()
		return nil, err
	}

	events := make(chan Event, 64)

	go func() {
		<-streamCtx.Done()
		_ = s.Stop()
	}()

	go func() {
		defer close(events)
		err := s.adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			select {
			case <-streamCtx.Done():
				_ = a.StopScan()
				return
			default:
			}

			if result.AdvertisementPayload == nil {
				return
			}
			mfg := make(map[uint16][]byte)
			for _, entry := range result.ManufacturerData() {
				mfg[entry.CompanyID] = entry.Data
			}
			if len(mfg) == 0 {
				return
			}

			ev := Event{
				Address:          result.Address.String(),
				RSSIDBm:          int(result.RSSI),
				ManufacturerData: mfg,
			}
			select {
			case events <- ev:
			default:
				log.Warn("blescan: event channel full, dropping advertisement")
			}
		})
		if err != nil {
			log.Warnf("blescan: scan loop ended with error: %v", err)
		}

		s.mu.Lock()
		s.scanning = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	return events, nil
}

// Stop ends an in-progress scan. It is idempotent and swallows errors
// from the underlying adapter, matching the spec's failure semantics.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = s.adapter.StopScan()
	return nil
}

func (s *Scanner) enableWithRetry() error {
	var lastErr error
	for attempt := 0; attempt <= s.retryAttempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * s.retryDelay // linear backoff
			log.Warnf("blescan: adapter enable attempt %d failed, retrying in %s: %v", attempt, wait, lastErr)
			time.Sleep(wait)
		}
		if err := s.adapter.Enable(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return ErrScannerInit
}
