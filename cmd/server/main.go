// Package main is the entrypoint for the NanoSynth API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nanosynth/nanosynth/internal/api"
	"github.com/nanosynth/nanosynth/internal/api/handler"
	mw "github.com/nanosynth/nanosynth/internal/api/middleware"
	"github.com/nanosynth/nanosynth/internal/api/response"
	"github.com/nanosynth/nanosynth/internal/cache"
	"github.com/nanosynth/nanosynth/internal/config"
	"github.com/nanosynth/nanosynth/internal/job"
	"github.com/nanosynth/nanosynth/internal/metrics"
	"github.com/nanosynth/nanosynth/internal/tracker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 30 * time.Second

var logLevel = new(slog.LevelVar)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config; fail fast on invalid config
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logLevel.Set(cfg.Log.Level)
	slog.Info("config loaded", "env", cfg.Server.Env, "seeded", cfg.Jobs.Seed != 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	// 4. Job runner and background tracker
	runner := job.NewRunner(
		job.WithProfiles(cfg.Jobs.Profiles),
		job.WithRandomness(job.NewRandomness(cfg.Jobs.Seed)),
		job.WithObserver(recorder),
		job.WithLogger(slog.Default()),
	)
	jobs := tracker.NewService(runner, redisCache, cfg.Jobs.TTL, cfg.Jobs.Timeout, slog.Default())

	// 5. Build router with dependencies
	maxBody := cfg.Server.MaxUploadBytes
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, cfg.RateLimit.RequestsPerMinute),
		Metrics:   recorder,

		HealthHandler:          healthHandler(redisCache),
		MethodsHandler:         handler.NewMethodsHandler(),
		DesignHandler:          handler.NewDesignHandler(runner),
		AnalysisHandler:        handler.NewAnalysisHandler(runner, maxBody),
		TriggerDesignHandler:   handler.NewTriggerDesignHandler(jobs),
		TriggerAnalysisHandler: handler.NewTriggerAnalysisHandler(jobs, maxBody),
		PollJobHandler:         handler.NewPollJobHandler(jobs),
		ReportHandler:          handler.NewReportHandler(jobs),
		MetricsHandler:         recorder.Handler(),
	}

	router := api.NewRouter(deps)

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := waitForJobs(shutdownCtx, jobs); err != nil {
		return fmt.Errorf("draining jobs: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// waitForJobs blocks until background jobs finish or ctx expires.
func waitForJobs(ctx context.Context, jobs *tracker.Service) error {
	done := make(chan struct{})
	go func() {
		jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// healthHandler checks cache connectivity.
func healthHandler(c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"cache": "ok",
		}

		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
