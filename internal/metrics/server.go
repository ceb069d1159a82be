package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes GET /healthz and GET /metrics over one http.Server,
// following the teacher's gorilla/mux routing convention.
type Server struct {
	addr    string
	http    *http.Server
	sources Sources
}

// NewServer constructs a Server bound to addr. It does not listen until
// Start is called.
func NewServer(addr string, sources Sources) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(sources))

	router := mux.NewRouter()
	s := &Server{addr: addr, sources: sources}
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

// healthReport is the /healthz JSON body.
type healthReport struct {
	OK              bool      `json:"ok"`
	PipelineState   string    `json:"pipeline_state,omitempty"`
	LastCycleAt     time.Time `json:"last_cycle_at,omitempty"`
	LastCycleErrors int       `json:"last_cycle_errors"`
	StoreError      string    `json:"store_error,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	report := healthReport{OK: true}

	if s.sources.Pipeline != nil {
		report.PipelineState = s.sources.Pipeline.State().String()
	}
	if s.sources.Orchestrator != nil {
		report.LastCycleAt, report.LastCycleErrors = s.sources.Orchestrator.Health()
	}
	if s.sources.Store != nil {
		if err := s.sources.Store.Health(r.Context()); err != nil {
			report.OK = false
			report.StoreError = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !report.OK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(report)
}

// Start listens on addr in a new goroutine and returns immediately. The
// returned error channel receives ListenAndServe's terminal error (nil
// on a clean Shutdown).
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("metrics: listening on %s", s.addr)
		err := s.http.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()
	return errCh
}

// Shutdown gracefully stops the server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
