package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shadeboard/coordinator/coordinator-app/config"
	"github.com/shadeboard/coordinator/pkg/metrics"
	apisrv "github.com/shadeboard/coordinator/server/api"
	apimw "github.com/shadeboard/coordinator/server/api/middleware"
	"github.com/shadeboard/coordinator/store"
	"github.com/shadeboard/coordinator/x/coordinator"
	coordhttp "github.com/shadeboard/coordinator/x/coordinator/http"
	"github.com/shadeboard/coordinator/x/yield"
)

// App represents the coordinator application
type App struct {
	cfg *config.Config
	log zerolog.Logger

	store  *store.DB
	host   *yield.LocalHost
	ledger *coordinator.Ledger

	apiServer *apisrv.Server

	cancel context.CancelFunc
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "app").Logger(),
	}

	if err := app.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

func (a *App) initialize() error {
	if err := a.initializeLedger(); err != nil {
		return err
	}
	return a.initializeAPIServer()
}

// initializeLedger opens persistence, starts the continuation host and
// restores the coordination ledger.
func (a *App) initializeLedger() error {
	var (
		db  *store.DB
		err error
	)
	if a.cfg.Storage.Reinitialize {
		db, err = store.OpenAndReinitialize(a.cfg.Storage.Path, a.cfg.Storage.ReinitProposalID)
	} else {
		db, err = store.Open(a.cfg.Storage.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.store = db

	a.host = yield.NewLocalHost(yield.Config{Horizon: a.cfg.Yield.Horizon}, a.log)

	ledgerMetrics := coordinator.NewNoOpMetrics()
	if a.cfg.Metrics.Enabled {
		ledgerMetrics = coordinator.NewMetrics()
	}

	ledger, err := coordinator.New(a.log,
		coordinator.WithOwner(a.cfg.Ledger.Owner),
		coordinator.WithStore(a.store),
		coordinator.WithHost(a.host),
		coordinator.WithMetrics(ledgerMetrics),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	a.ledger = ledger

	return nil
}

// initializeAPIServer sets up the HTTP API server with all endpoints
func (a *App) initializeAPIServer() error {
	apiCfg := apisrv.Config{
		ListenAddr:        a.cfg.API.ListenAddr,
		ReadHeaderTimeout: a.cfg.API.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.API.ReadTimeout,
		WriteTimeout:      a.cfg.API.WriteTimeout,
		IdleTimeout:       a.cfg.API.IdleTimeout,
		MaxHeaderBytes:    a.cfg.API.MaxHeaderBytes,
	}
	s := apisrv.NewServer(apiCfg, a.log)
	s.Use(apimw.Recover(a.log))
	s.Use(apimw.RequestID())
	s.Use(apimw.CallerID())
	s.Use(apimw.Logger(a.log))

	s.Router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	s.Router.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)

	if a.cfg.Metrics.Enabled {
		s.Router.Handle(a.cfg.Metrics.Path,
			promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	handler := coordhttp.NewHandler(a.ledger, a.log)
	handler.RegisterMux(s.Router)

	a.apiServer = s
	return nil
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go func() {
		if err := a.apiServer.Start(runCtx); err != nil {
			a.log.Error().Err(err).Msg("API server error")
		}
	}()

	return a.runWithGracefulShutdown(runCtx)
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info().Msg("Coordinator started successfully")

	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	if a.cancel != nil {
		a.cancel()
	}

	return a.shutdown()
}

// shutdown stops the continuation host and closes persistence. Pending
// continuations are dropped; on restart they resume from the stored
// proposal records.
func (a *App) shutdown() error {
	a.log.Info().Msg("Initiating graceful shutdown")

	a.host.Stop()

	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("Store close error")
		return err
	}

	a.log.Info().Msg("Graceful shutdown complete")
	return nil
}

// handleHealth responds to health check requests.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleReady reports readiness. The ledger is ready once a manifesto is
// published; before that only admin operations can succeed.
func (a *App) handleReady(w http.ResponseWriter, _ *http.Request) {
	status := "ready"
	code := http.StatusOK
	if a.ledger.GetManifesto() == nil {
		status = "awaiting_manifesto"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":"%s","current_proposal_id":%d}`, status, a.ledger.GetCurrentProposalID())
}
