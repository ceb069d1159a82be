package sensorpipeline

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds the observable-but-not-authoritative counters the pipeline
// keeps: they describe its behavior for logging/metrics but nothing in
// the pipeline's correctness depends on reading them back.
type Stats struct {
	scanCycles    uint64
	decodeRejects uint64
	pointsWritten uint64
	pointsFailed  uint64

	mu          sync.Mutex
	devicesSeen map[string]struct{}
	lastScanAt  time.Time
	lastWriteAt time.Time
}

func newStats() *Stats {
	return &Stats{devicesSeen: make(map[string]struct{})}
}

func (s *Stats) recordScan(mac string) {
	atomic.AddUint64(&s.scanCycles, 1)
	s.mu.Lock()
	s.devicesSeen[mac] = struct{}{}
	s.lastScanAt = time.Now()
	s.mu.Unlock()
}

func (s *Stats) recordDecodeReject() {
	atomic.AddUint64(&s.decodeRejects, 1)
}

func (s *Stats) recordWrite(n int) {
	atomic.AddUint64(&s.pointsWritten, uint64(n))
	s.mu.Lock()
	s.lastWriteAt = time.Now()
	s.mu.Unlock()
}

func (s *Stats) recordWriteFailure(n int) {
	atomic.AddUint64(&s.pointsFailed, uint64(n))
}

// Snapshot is an immutable, point-in-time copy of Stats, safe to read
// from any goroutine (for /metrics or a log line) without touching the
// live counters' locks.
type Snapshot struct {
	ScanCycles    uint64
	DevicesSeen   int
	DecodeRejects uint64
	PointsWritten uint64
	PointsFailed  uint64
	LastScanAt    time.Time
	LastWriteAt   time.Time
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ScanCycles:    atomic.LoadUint64(&s.scanCycles),
		DevicesSeen:   len(s.devicesSeen),
		DecodeRejects: atomic.LoadUint64(&s.decodeRejects),
		PointsWritten: atomic.LoadUint64(&s.pointsWritten),
		PointsFailed:  atomic.LoadUint64(&s.pointsFailed),
		LastScanAt:    s.lastScanAt,
		LastWriteAt:   s.lastWriteAt,
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scan_cycles=%d devices_seen=%d decode_rejects=%d points_written=%d points_failed=%d last_scan_at=%s last_write_at=%s",
		s.ScanCycles, s.DevicesSeen, s.DecodeRejects, s.PointsWritten, s.PointsFailed,
		s.LastScanAt.Format(time.RFC3339), s.LastWriteAt.Format(time.RFC3339),
	)
}
