/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rostering engine server (rosterd).
  Handles configuration, dependency injection, and graceful shutdown.

COMMANDS:
  rosterd [serve]   Run the HTTP API (default)
  rosterd seed      Load a demo scenario into the database and exit

STARTUP SEQUENCE (serve):
  1. Resolve configuration (flags > ROSTER_* env > config file)
  2. Open the SQLite store; wrap it in the in-memory mirror and warm it
  3. Create API handler and router
  4. Start the roster pre-generation scheduler
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./rosterd --db=./data/roster.db

  # Run with in-memory database and no mirror
  ROSTER_DB=":memory:" ROSTER_MIRROR=false ./rosterd

  # Seed tomorrow's demo attendance
  ./rosterd seed --scenario=demo-attendance --date=2025-03-02 --seed=7

SEE ALSO:
  - config.go: Flags, env binding and logger setup
  - api/server.go: Router configuration
  - store/mirror/mirror.go: Remote/local fallback
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/api"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule/store"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/store/mirror"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := newViper()

	root := &cobra.Command{
		Use:          "rosterd",
		Short:        "Staff rostering engine: templates, rosters, timesheets and shift bids",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(v, cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	storeFlags(root.PersistentFlags())
	serveFlags(root.Flags())

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  root.RunE,
	}
	serveFlags(serveCmd.Flags())

	root.AddCommand(serveCmd, newSeedCmd())
	return root
}

func newSeedCmd() *cobra.Command {
	var req api.LoadScenarioRequest

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo scenario and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(newViper(), cmd.Flags())
			if err != nil {
				return err
			}
			return seed(cmd.Context(), cfg, req)
		},
	}
	cmd.Flags().StringVar(&req.ScenarioID, "scenario", api.ScenarioDemoDay, "Scenario id (demo-day, open-shifts, demo-attendance)")
	cmd.Flags().StringVar(&req.Date, "date", "", "Roster date YYYY-MM-DD (default today)")
	cmd.Flags().Uint64Var(&req.Seed, "seed", 1, "Random seed for demo attendance")
	return cmd
}

// =============================================================================
// STORE WIRING
// =============================================================================

type backend struct {
	store schedule.Store
	reset func(ctx context.Context) error
	close func() error
}

// openBackend opens SQLite and, when enabled, puts the in-memory mirror in
// front of it. reg may be nil.
func openBackend(ctx context.Context, cfg config, log *zap.Logger, reg prometheus.Registerer) (*backend, error) {
	db, err := sqlite.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if !cfg.Mirror {
		return &backend{store: db, reset: db.Reset, close: db.Close}, nil
	}

	local := store.NewMemory()
	m := mirror.New(db, local, log, mirror.NewMetrics(reg))
	if err := m.Warm(ctx); err != nil {
		log.Warn("mirror warm-up incomplete", zap.Error(err))
	}
	return &backend{
		store: m,
		reset: func(ctx context.Context) error {
			local.Reset()
			return db.Reset(ctx)
		},
		close: db.Close,
	}, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func serve(ctx context.Context, cfg config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	b, err := openBackend(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer b.close()

	handler := api.NewHandler(b.store, cfg.Rates, log)
	handler.Reset = b.reset

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Gatherer:       prometheus.DefaultGatherer,
	})

	scheduler := api.NewRosterScheduler(handler.Rosters, log)
	scheduler.Days = cfg.PregenerateDays
	scheduler.TemplateID = cfg.PregenerateTemplate
	scheduler.Populate = cfg.PregeneratePopulate
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Port), zap.String("db", cfg.DB), zap.Bool("mirror", cfg.Mirror))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func seed(ctx context.Context, cfg config, req api.LoadScenarioRequest) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	b, err := openBackend(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer b.close()

	handler := api.NewHandler(b.store, cfg.Rates, log)
	handler.Reset = b.reset
	return handler.Load(ctx, req)
}
