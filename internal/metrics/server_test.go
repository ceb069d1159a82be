package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/ruuvitel/internal/resilience"
	"github.com/chrissnell/ruuvitel/internal/sensorpipeline"
)

type fakePipeline struct {
	state sensorpipeline.State
	stats sensorpipeline.Snapshot
}

func (f fakePipeline) State() sensorpipeline.State   { return f.state }
func (f fakePipeline) Stats() sensorpipeline.Snapshot { return f.stats }

type fakeOrchestrator struct {
	lastCycleAt time.Time
	errs        int
	breaker     resilience.BreakerState
}

func (f fakeOrchestrator) Health() (time.Time, int)                  { return f.lastCycleAt, f.errs }
func (f fakeOrchestrator) FetcherBreakerState() resilience.BreakerState { return f.breaker }

type fakeStore struct{ err error }

func (f fakeStore) Health(ctx context.Context) error { return f.err }

func newTestServer(t *testing.T, sources Sources) *httptest.Server {
	t.Helper()
	s := NewServer("127.0.0.1:0", sources)
	return httptest.NewServer(s.http.Handler)
}

func TestHealthz_HealthyWhenAllSourcesOK(t *testing.T) {
	sources := Sources{
		Pipeline:     fakePipeline{state: sensorpipeline.Running},
		Orchestrator: fakeOrchestrator{lastCycleAt: time.Now(), errs: 0},
		Store:        fakeStore{},
	}
	srv := newTestServer(t, sources)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var report healthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !report.OK {
		t.Error("expected OK=true")
	}
	if report.PipelineState != "RUNNING" {
		t.Errorf("PipelineState = %q, want RUNNING", report.PipelineState)
	}
}

func TestHealthz_UnhealthyWhenStoreUnreachable(t *testing.T) {
	sources := Sources{
		Store: fakeStore{err: errors.New("connection refused")},
	}
	srv := newTestServer(t, sources)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	var report healthReport
	json.NewDecoder(resp.Body).Decode(&report)
	if report.OK {
		t.Error("expected OK=false when store is unreachable")
	}
	if report.StoreError == "" {
		t.Error("expected a non-empty StoreError message")
	}
}

func TestMetrics_ExposesPrometheusExposition(t *testing.T) {
	sources := Sources{
		Pipeline: fakePipeline{
			state: sensorpipeline.Running,
			stats: sensorpipeline.Snapshot{PointsWritten: 42, DevicesSeen: 3},
		},
		Orchestrator: fakeOrchestrator{breaker: resilience.Open},
	}
	srv := newTestServer(t, sources)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := make([]byte, 8192)
	n, _ := resp.Body.Read(body)
	text := string(body[:n])

	for _, want := range []string{"ruuvitel_points_written_total", "ruuvitel_devices_seen", "ruuvitel_breaker_state"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected /metrics output to contain %q", want)
		}
	}
}
