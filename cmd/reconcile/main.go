package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/minwoo-dev/ota-recon/internal/application/reconcile"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/logging"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path (empty = config.yaml, then env)")
		noHistory  = flag.Bool("no-history", false, "Skip recording the run in the history database")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg := loadConfig(*configFile)
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "reconcile")

	var repo storage.Repository
	if !*noHistory {
		store, err := storage.NewStorage(cfg.Paths.DatabasePath)
		if err != nil {
			logger.Error("failed to open history database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer store.Close()
		repo = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := reconcile.New(cfg, repo, logger).Run(ctx)
	if err != nil {
		logger.Error("reconciliation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("done", "run_id", summary.RunID, "rows", summary.LedgerRows)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.LoadOrEnv()
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", path), slog.String("error", err.Error()))
		os.Exit(1)
	}
	return cfg
}
