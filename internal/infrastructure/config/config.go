// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	resultPath := cfg.ResultPath()
//	ratio := cfg.Vendors.Booking.Ratio
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Paths         PathsConfig         `yaml:"paths"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Vendors       VendorsConfig       `yaml:"vendors"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PathsConfig holds file locations shared with the downloader scripts
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir"`
	ResultFile   string `yaml:"result_file"`   // review result workbook, relative to base_dir
	LedgerGlob   string `yaml:"ledger_glob"`   // dated full-customer-list files used to bootstrap the result file
	StatementDir string `yaml:"statement_dir"` // where the downloaders drop payout exports
	PayoutFile   string `yaml:"payout_file"`   // payout summary workbook maintained by remittance-import
	DatabasePath string `yaml:"database_path"` // run-history SQLite database
}

// LedgerConfig holds the header keywords used to resolve ledger columns.
// The headers are an external contract with the hotel's spreadsheet;
// the first column whose header contains the keyword wins.
type LedgerConfig struct {
	GuestKeyword     string `yaml:"guest_keyword"`
	TotalKeyword     string `yaml:"total_keyword"`
	RoomKeyword      string `yaml:"room_keyword"`
	VendorKeyword    string `yaml:"vendor_keyword"`
	ReferenceKeyword string `yaml:"reference_keyword"`
}

// VendorsConfig holds per-OTA settings
type VendorsConfig struct {
	Agoda   VendorConfig `yaml:"agoda"`
	Booking VendorConfig `yaml:"booking"`
	Expedia VendorConfig `yaml:"expedia"`
}

// VendorConfig holds one OTA's statement-file convention and match policy
type VendorConfig struct {
	Enabled   bool    `yaml:"enabled"`
	FileGlob  string  `yaml:"file_glob"` // statement files inside statement_dir
	Label     string  `yaml:"label"`     // vendor value as it appears in the ledger
	Ratio     float64 `yaml:"ratio"`     // payout-to-ledger currency/fee ratio
	Tolerance float64 `yaml:"tolerance"` // absolute amount tolerance (0 = exact)
}

// APIConfig holds the read-only reporting API settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${OTA_BASE_DIR})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Paths: PathsConfig{
			BaseDir:      getEnv("OTA_BASE_DIR", "."),
			DatabasePath: getEnv("OTA_DB_PATH", "ota_recon.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("OTA_LOG_LEVEL", "info"),
				Format: getEnv("OTA_LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries config.yaml first, then falls back to environment variables
func LoadOrEnv() *Config {
	if cfg, err := Load("config.yaml"); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills in anything the config file left out. The defaults
// encode the downloader scripts' file-naming conventions and the ledger's
// Korean header names.
func (c *Config) applyDefaults() {
	if c.Paths.BaseDir == "" {
		c.Paths.BaseDir = "."
	}
	if c.Paths.ResultFile == "" {
		c.Paths.ResultFile = "매출_검토_결과.xlsx"
	}
	if c.Paths.LedgerGlob == "" {
		c.Paths.LedgerGlob = "전체고객 목록_*.xlsx"
	}
	if c.Paths.StatementDir == "" {
		c.Paths.StatementDir = "ota-adjustment"
	}
	if c.Paths.PayoutFile == "" {
		c.Paths.PayoutFile = "매출 및 입금 결과.xlsx"
	}
	if c.Paths.DatabasePath == "" {
		c.Paths.DatabasePath = "ota_recon.db"
	}

	if c.Ledger.GuestKeyword == "" {
		c.Ledger.GuestKeyword = "고객"
	}
	if c.Ledger.TotalKeyword == "" {
		c.Ledger.TotalKeyword = "합계"
	}
	if c.Ledger.RoomKeyword == "" {
		c.Ledger.RoomKeyword = "객실"
	}
	if c.Ledger.VendorKeyword == "" {
		c.Ledger.VendorKeyword = "거래처"
	}
	if c.Ledger.ReferenceKeyword == "" {
		c.Ledger.ReferenceKeyword = "OTA"
	}

	if c.Vendors.Agoda.FileGlob == "" {
		c.Vendors.Agoda = VendorConfig{
			Enabled:  true,
			FileGlob: "Remittances*.xlsx",
			Label:    "아고다",
			Ratio:    1.0,
		}
	}
	if c.Vendors.Booking.FileGlob == "" {
		c.Vendors.Booking = VendorConfig{
			Enabled:  true,
			FileGlob: "booking*.csv",
			Label:    "부킹닷컴",
			Ratio:    0.82,
		}
	}
	if c.Vendors.Expedia.FileGlob == "" {
		c.Vendors.Expedia = VendorConfig{
			Enabled:   true,
			FileGlob:  "expedia*.csv",
			Label:     "익스피디아",
			Ratio:     1.0,
			Tolerance: 1000,
		}
	}

	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// ResultPath returns the absolute path of the review result workbook
func (c *Config) ResultPath() string {
	return filepath.Join(c.Paths.BaseDir, c.Paths.ResultFile)
}

// StatementPath returns the absolute path of the statement download directory
func (c *Config) StatementPath() string {
	return filepath.Join(c.Paths.BaseDir, c.Paths.StatementDir)
}

// PayoutPath returns the absolute path of the payout summary workbook
func (c *Config) PayoutPath() string {
	return filepath.Join(c.Paths.BaseDir, c.Paths.PayoutFile)
}

// getEnv returns the environment variable value or a default
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
