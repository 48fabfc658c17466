// Package server assembles the HTTP service: configuration, the pool,
// background workers and the router.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/notifications"
	"pms/internal/platform/config"
	"pms/internal/platform/db"
	"pms/internal/platform/metrics"
	"pms/internal/platform/pubsub"
	"pms/internal/platform/storage"
	"pms/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

// SetupLogging installs the JSON slog handler as the process default.
func SetupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
}

// Prepare connects to the database and applies migrations and seed data as
// configured. The caller owns the returned pool.
func Prepare(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		if cfg.SeedFile != "" {
			fixtures, err := db.LoadFixtures(cfg.SeedFile)
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("load fixtures: %w", err)
			}
			result, err := db.ApplyFixtures(ctx, pool, fixtures)
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("apply fixtures: %w", err)
			}
			slog.Info("fixtures applied", "organizations", result.Organizations, "users", result.Users, "goals", result.Goals)
		}
	}
	return pool, nil
}

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Router   http.Handler
	Services *Services
	Hub      *notifications.Hub
	Metrics  *metrics.Collector

	broker pubsub.Broker
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// New prepares the database and starts the background workers: hub, broker
// subscription, dispatcher and scheduled jobs. Close stops them.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}
	objects, err := storage.New(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	broker, err := pubsub.New(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("broker: %w", err)
	}

	hub := notifications.NewHub()
	svc := NewServices(pool, cfg, objects, broker)

	collector := metrics.New()
	collector.AddSource("notifications", svc.Dispatcher.Snapshot)
	collector.AddSource("jobs", func() map[string]any {
		out := map[string]any{}
		for jobType, at := range svc.Jobs.LastRuns() {
			out[jobType] = at.UTC().Format(time.RFC3339)
		}
		return out
	})

	var limits middleware.RateCounter
	if shared, ok := broker.(*pubsub.Redis); ok {
		limits = shared
	}

	bgCtx, stop := context.WithCancel(context.Background())
	app := &App{
		Config:   cfg,
		DB:       pool,
		Router:   NewRouter(cfg, pool, svc, hub, collector, limits),
		Services: svc,
		Hub:      hub,
		Metrics:  collector,
		broker:   broker,
		stop:     stop,
	}

	app.wg.Add(3)
	go func() {
		defer app.wg.Done()
		hub.Run(bgCtx)
	}()
	go func() {
		defer app.wg.Done()
		if err := broker.Run(bgCtx, hub.Deliver); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("broker stopped", "err", err)
		}
	}()
	go func() {
		defer app.wg.Done()
		svc.Dispatcher.Run(bgCtx)
	}()
	svc.Jobs.Start(bgCtx)
	return app, nil
}

// Close stops the workers, letting the dispatcher drain, then releases the
// broker and the pool.
func (a *App) Close() {
	a.stop()
	a.wg.Wait()
	if err := a.broker.Close(); err != nil {
		slog.Warn("broker close failed", "err", err)
	}
	a.DB.Close()
}

// Run serves until ctx is cancelled, then shuts down HTTP before the
// background workers.
func Run(ctx context.Context) error {
	cfg := config.Load()
	SetupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("pms server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown failed", "err", err)
	}
	return serveErr
}
