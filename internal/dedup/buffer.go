// Package dedup implements the MAC-keyed last-writer-wins buffer that sits
// between the BLE scan source and the time-series client. It collapses a
// roughly one-frame-per-second-per-sensor advertisement rate down to one
// write per flush_interval per sensor.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/chrissnell/ruuvitel/internal/ruuvi"
)

// FlushFunc receives one flush's worth of measurements, keyed by MAC, and
// is responsible for forwarding them to the time-series client. Buffer
// does not know about tsstore — this keeps the buffer independently
// testable and mirrors the teacher's channel-handoff pattern in
// internal/storage/utils.go's ProcessReadings.
type FlushFunc func(batch map[string]*ruuvi.Measurement)

// generation is the mutable half of the double buffer. Swapping the
// active generation's pointer (under Buffer.mu) is the only thing the
// producer path and the drain path contend over.
type generation struct {
	entries map[string]*ruuvi.Measurement
	order   []string // first-insertion order, for oldest-preferred eviction
}

func newGeneration() *generation {
	return &generation{entries: make(map[string]*ruuvi.Measurement)}
}

// Buffer is the MAC -> latest-Measurement map described above.
type Buffer struct {
	mu            sync.Mutex
	active        *generation
	maxBufferSize int
	flushInterval time.Duration
	onFlush       FlushFunc

	overflowCount uint64
}

// New constructs a Buffer. maxBufferSize and flushInterval must be > 0;
// callers validate this via internal/config before construction.
func New(maxBufferSize int, flushInterval time.Duration, onFlush FlushFunc) *Buffer {
	return &Buffer{
		active:        newGeneration(),
		maxBufferSize: maxBufferSize,
		flushInterval: flushInterval,
		onFlush:       onFlush,
	}
}

// Insert records m as the latest measurement for mac, last-writer-wins.
// If the buffer exceeds maxBufferSize afterward, it evicts the
// oldest-inserted entries (arbitrary among ties) down to maxBufferSize
// and logs an overflow warning.
func (b *Buffer) Insert(mac string, m *ruuvi.Measurement) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := b.active
	if _, exists := g.entries[mac]; !exists {
		g.order = append(g.order, mac)
	}
	g.entries[mac] = m

	if len(g.entries) > b.maxBufferSize {
		overflow := len(g.entries) - b.maxBufferSize
		evicted := 0
		for i := 0; i < len(g.order) && evicted < overflow; i++ {
			if _, ok := g.entries[g.order[i]]; ok {
				delete(g.entries, g.order[i])
				evicted++
			}
		}
		g.order = g.order[evicted:]
		b.overflowCount++
		log.Warnf("dedup: buffer overflow, evicted %d oldest entries (max_buffer_size=%d)", evicted, b.maxBufferSize)
	}
}

// Len reports the current size of the active generation.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active.entries)
}

// OverflowCount reports how many times Insert has triggered a
// size-triggered eviction since construction.
func (b *Buffer) OverflowCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowCount
}

// Flush atomically swaps in a fresh empty generation and hands the
// drained (now-inactive) one to onFlush, outside the lock, so producers
// are never blocked by a slow sink.
func (b *Buffer) Flush() {
	b.mu.Lock()
	drained := b.active
	b.active = newGeneration()
	b.mu.Unlock()

	if len(drained.entries) == 0 || b.onFlush == nil {
		return
	}
	b.onFlush(drained.entries)
}

// Run drives the time-triggered flush policy: one Flush() every
// flush_interval until ctx is cancelled, followed by exactly one final
// drain on shutdown. Intended to be run in its own goroutine.
func (b *Buffer) Run(ctx context.Context) {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-ctx.Done():
			b.Flush()
			return
		}
	}
}
