// Command refresh runs one refresh pass outside the collector: either the
// current stale set or the symbols given with -symbols.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/tickersense/internal/app"
	"github.com/rickgao/tickersense/internal/config"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/version"
)

// summary is printed to stdout per refreshed symbol.
type summary struct {
	Symbol    string  `json:"symbol"`
	Status    string  `json:"status"`
	Compound  float64 `json:"compound,omitempty"`
	Label     string  `json:"label,omitempty"`
	News      int     `json:"news"`
	Social    int     `json:"social"`
	Flagged   bool    `json:"flagged"`
	RiskScore float64 `json:"risk_score"`
	Error     string  `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "configs/collector.local.yaml", "path to config file")
	symbols := flag.String("symbols", "", "comma-separated symbols to refresh regardless of staleness")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := config.LoadEnv(".env"); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}
	logger = app.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	logger.Info("starting refresh", version.LogAttrs()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Refresh.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Refresh.Timeout)
		defer cancel()
	}

	if err := run(ctx, cfg, parseSymbols(*symbols), logger); err != nil {
		logger.Error("refresh failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, symbols []string, logger *slog.Logger) error {
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}

	if len(symbols) == 0 {
		stats, err := a.Refresher.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "refreshed %d of %d stale entities (%d failed, %d flagged)\n",
			stats.Refreshed, stats.Selected, stats.Failed, stats.Flagged)
		return nil
	}

	runID := uuid.NewString()
	ctx = fetch.StartCycle(ctx)
	enc := json.NewEncoder(os.Stdout)
	var failed int
	for _, sym := range symbols {
		a.Registry.Discover(sym)
		e, _ := a.Registry.Get(sym)

		s := summary{Symbol: e.Symbol, Status: "ok"}
		res, err := a.Refresher.RefreshEntity(ctx, e, runID)
		if err != nil {
			failed++
			s.Status = "failed"
			s.Error = err.Error()
		} else {
			s.Compound = res.Overall.Compound
			s.Label = string(res.Overall.Label)
			s.News = res.News.Count
			s.Social = res.Social.Count
			s.Flagged = res.Anomaly.Flagged
			s.RiskScore = res.Anomaly.RiskScore
		}
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(symbols))
	}
	return nil
}

func parseSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
