package sensorpipeline

import (
	"testing"
	"time"
)

func TestStats_SnapshotCountsDistinctDevices(t *testing.T) {
	s := newStats()
	s.recordScan("AA:BB:CC:DD:EE:01")
	s.recordScan("AA:BB:CC:DD:EE:01")
	s.recordScan("AA:BB:CC:DD:EE:02")
	s.recordDecodeReject()
	s.recordWrite(3)
	s.recordWriteFailure(1)

	snap := s.Snapshot()
	if snap.ScanCycles != 3 {
		t.Errorf("ScanCycles = %d, want 3", snap.ScanCycles)
	}
	if snap.DevicesSeen != 2 {
		t.Errorf("DevicesSeen = %d, want 2 distinct MACs", snap.DevicesSeen)
	}
	if snap.DecodeRejects != 1 {
		t.Errorf("DecodeRejects = %d, want 1", snap.DecodeRejects)
	}
	if snap.PointsWritten != 3 {
		t.Errorf("PointsWritten = %d, want 3", snap.PointsWritten)
	}
	if snap.PointsFailed != 1 {
		t.Errorf("PointsFailed = %d, want 1", snap.PointsFailed)
	}
}

func TestBackoffDuration_CapsAtFiveConsecutiveErrors(t *testing.T) {
	base := time.Second
	atCap := backoffDuration(base, 2.0, 5)
	beyondCap := backoffDuration(base, 2.0, 20)
	if atCap != beyondCap {
		t.Errorf("backoffDuration(n=5) = %v, backoffDuration(n=20) = %v, want equal (capped)", atCap, beyondCap)
	}
}
