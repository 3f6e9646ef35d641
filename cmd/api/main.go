package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/minwoo-dev/ota-recon/internal/api"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/logging"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path (empty = config.yaml, then env)")
		port       = flag.Int("port", 0, "Listen port (overrides config)")
	)
	flag.Parse()

	cfg := loadConfig(*configFile)
	if *port != 0 {
		cfg.API.Port = *port
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Paths.DatabasePath)
	if err != nil {
		logger.Error("failed to open history database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	server := api.NewServer(cfg.API, store, logger)
	if err := server.Run(); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
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
