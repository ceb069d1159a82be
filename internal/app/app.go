// Package app wires the sensor pipeline, the orchestrator, and the
// health/metrics server into one process with one context-rooted
// shutdown tree, following internal/app's original
// root-context-plus-WaitGroup-plus-signal-channel shape.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/ruuvitel/internal/blescan"
	"github.com/chrissnell/ruuvitel/internal/config"
	"github.com/chrissnell/ruuvitel/internal/identity"
	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/chrissnell/ruuvitel/internal/metrics"
	"github.com/chrissnell/ruuvitel/internal/orchestrator"
	"github.com/chrissnell/ruuvitel/internal/sensorpipeline"
	"github.com/chrissnell/ruuvitel/internal/tsstore"
)

// App is the whole daemon: one sensor pipeline, one orchestrator, one
// metrics server, sharing one time-series client.
type App struct {
	cfgPath string
	cfg     *config.Config

	store        *tsstore.Client
	pipeline     *sensorpipeline.Pipeline
	orchestrator *orchestrator.Orchestrator
	metricsSrv   *metrics.Server
}

// New constructs an App from a config file path. The config is read and
// validated immediately so construction fails fast on a bad config.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return &App{cfgPath: cfgPath, cfg: cfg}, nil
}

// Run wires every component and blocks until SIGINT/SIGTERM or ctx is
// cancelled, then drains everything in reverse order. SIGHUP re-reads
// the config file and reloads the forecast/orchestrator section;
// critical settings (store endpoint, adapter id) require a process
// restart, matching spec.md §4.9's reload scope.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	a.store = tsstore.New(a.cfg.Store, a.cfg.Scan)
	if err := a.store.Connect(ctx); err != nil {
		return err
	}

	adapter := blescan.ResolveAdapter(a.cfg.Scan.AdapterID)
	scanner := blescan.New(adapter, a.cfg.Scan.RetryAttempts, a.cfg.Scan.RetryDelay)
	ident := identity.NewMemoryStore()
	a.pipeline = sensorpipeline.New(scanner, a.store, ident, a.cfg.Scan)

	a.orchestrator = orchestrator.New(a.store, a.cfg.Forecast)

	a.metricsSrv = metrics.NewServer(a.cfg.Ambient.MetricsAddr, metrics.Sources{
		Pipeline:     a.pipeline,
		Orchestrator: a.orchestrator,
		Store:        a.store,
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.pipeline.Run(ctx); err != nil {
			log.Errorf("sensor pipeline exited with error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.orchestrator.Run(ctx)
	}()

	// An empty metrics_addr disables the metrics server; a nil channel
	// never fires in the select below.
	var metricsErrCh <-chan error
	if a.cfg.Ambient.MetricsAddr != "" {
		metricsErrCh = a.metricsSrv.Start()
	}

	log.Info("ruuvitel started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

waitForShutdown:
	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				if err := a.reload(); err != nil {
					log.Errorf("reload failed, continuing with previous configuration: %v", err)
				}
				continue
			}
			log.Info("shutdown signal received, initiating graceful shutdown...")
			cancel()
			break waitForShutdown

		case err := <-metricsErrCh:
			if err != nil {
				log.Errorf("metrics server exited unexpectedly: %v", err)
			}
			cancel()
			break waitForShutdown

		case <-ctx.Done():
			break waitForShutdown
		}
	}

	log.Info("waiting for pipeline and orchestrator to drain...")
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Store.WriteTimeout)
	defer shutdownCancel()
	if err := a.metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("metrics server shutdown: %v", err)
	}

	_ = a.store.Disconnect()
	log.Info("shutdown complete")
	return nil
}

// reload re-reads the config file and applies the forecast section to
// the orchestrator. Scan/store settings are intentionally not re-applied
// live: spec.md §4.9 calls those "critical" and requires tearing down
// and re-initializing the affected components, which for the scan
// source and store client means a process restart here rather than a
// live component swap.
func (a *App) reload() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.orchestrator.Reload(cfg.Forecast)
	log.Info("configuration reloaded: forecast section applied")
	return nil
}
