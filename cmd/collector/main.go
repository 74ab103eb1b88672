package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/tickersense/internal/app"
	"github.com/rickgao/tickersense/internal/config"
	"github.com/rickgao/tickersense/internal/metrics"
	"github.com/rickgao/tickersense/internal/scheduler"
	"github.com/rickgao/tickersense/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.local.yaml", "path to config file")
	flag.Parse()

	// Bootstrap logger until the configured one is built
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := config.LoadEnv(".env"); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	logger = app.NewLogger(cfg.Logging, os.Stdout).With("instance_id", cfg.Instance.ID)
	slog.SetDefault(logger)

	logger.Info("starting collector", append(version.LogAttrs(), "config", *configPath)...)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("collector failed", "error", err)
		os.Exit(1)
	}
	logger.Info("collector stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer closeCancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Config{Tick: cfg.Scheduler.Tick}, a.Clock, logger)
	if err := sched.Add("social", cfg.Social.Interval, func(ctx context.Context) error {
		_, err := a.Crawl(ctx)
		return err
	}, scheduler.WithTimeout(cfg.Social.Timeout)); err != nil {
		return err
	}
	if err := sched.Add("refresh", cfg.Refresh.Interval(), scheduler.RefreshJob(a.Refresher),
		scheduler.WithTimeout(cfg.Refresh.Timeout)); err != nil {
		return err
	}

	// Metrics server starts before the scheduler so the first runs are visible
	src := a.MetricsSources()
	src.Jobs = sched
	m := metrics.New(src)
	sched.OnRun(m.ObserveRun)

	srv := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Metrics.Path, m, sched, logger)
	for name, check := range a.Checks() {
		srv.AddCheck(name, check)
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}

	logger.Info("collector running",
		"subreddits", len(cfg.Social.Subreddits),
		"refresh_interval", cfg.Refresh.Interval(),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop failed", "error", err)
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("metrics server stop failed", "error", err)
	}
	return nil
}
