/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the overtime balance server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Open the store (SQLite with goose migrations, or PostgreSQL via gorm)
  3. Build calculator, materializer and service
  4. Start the rebuild/rollover scheduler
  5. Configure HTTP router and start the server

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close the database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/overtime.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run against PostgreSQL
  DB_DRIVER=postgres DATABASE_URL="host=localhost user=postgres dbname=overtime" ./server

SEE ALSO:
  - config/config.go: Settings
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/gormstore"
	"github.com/warp/overtime-engine/store/sqlite"
)

// storeCloser is a store the server owns.
type storeCloser interface {
	api.Store
	Close() error
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := openStore(cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	clock := generic.SystemClock{}
	balances := overtime.NewMaterializer(overtime.NewLiveCalculator(store, clock), store, generic.NewLedger(store), logger)
	balances.VerifyOnRead = cfg.Engine.VerifyOnRead
	service := overtime.NewService(store, balances)

	scheduler := api.NewRebuildScheduler(store, balances, logger)
	scheduler.CheckInterval = cfg.Engine.RebuildInterval
	scheduler.Start()

	handler := api.NewHandler(store, service, logger)
	handler.MinBalance = cfg.Engine.MinBalance
	handler.Rebuilds = scheduler

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shut down the server", slog.Any("error", err))
		}
		scheduler.Stop()
		close(done)
	}()

	logger.Info("server is starting",
		slog.Int("port", cfg.Server.Port),
		slog.String("driver", cfg.Database.Driver),
		slog.Bool("verify_on_read", cfg.Engine.VerifyOnRead),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", slog.Any("error", err))
		scheduler.Stop()
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

func openStore(cfg config.DatabaseConfig, logger *slog.Logger) (storeCloser, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return connectPostgres(cfg.URL, logger)
	default:
		return sqlite.New(cfg.Path)
	}
}

// connectPostgres retries while the database comes up.
func connectPostgres(dsn string, logger *slog.Logger) (*gormstore.Store, error) {
	var err error
	for attempt := 1; attempt <= 30; attempt++ {
		var store *gormstore.Store
		store, err = gormstore.OpenPostgres(dsn)
		if err == nil {
			if err = store.Ping(context.Background()); err == nil {
				return store, nil
			}
			store.Close()
		}
		logger.Warn("database not ready", slog.Int("attempt", attempt), slog.Any("error", err))
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("failed to connect to database after 30 attempts: %w", err)
}
