package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/minwoo-dev/ota-recon/internal/application/remittance"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/logging"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path (empty = config.yaml, then env)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <remittances.csv> [more.csv ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := loadConfig(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "remittance")
	importer := remittance.New(cfg, logger)

	total := 0
	for _, path := range flag.Args() {
		records, err := importer.ReadCSV(path)
		if err != nil {
			logger.Error("failed to read remittance export", slog.String("path", path), slog.String("error", err.Error()))
			os.Exit(1)
		}
		added, err := importer.Import(records)
		if err != nil {
			logger.Error("failed to update payout workbook", slog.String("path", path), slog.String("error", err.Error()))
			os.Exit(1)
		}
		total += added
	}

	logger.Info("import finished", "files", flag.NArg(), "added", total)
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
