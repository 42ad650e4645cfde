// Package common provides shared utilities for damoa
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/damoa-dev/damoa/internal/models"
)

// Config holds all configuration for damoa
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Brokerage   BrokerageConfig `toml:"brokerage"`
	Rates       RatesConfig     `toml:"rates"`
	Sheets      SheetsConfig    `toml:"sheets"`
	Tables      TablesConfig    `toml:"tables"`
	Logging     LoggingConfig   `toml:"logging"`

	// Accounts are assembled from environment credentials, never from TOML.
	Accounts []models.Account `toml:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the tabular store backend.
type StorageConfig struct {
	Backend string     `toml:"backend"` // "sheets" or "file"
	File    FileConfig `toml:"file"`
}

// FileConfig holds path configuration for the file-backed table store.
type FileConfig struct {
	Path string `toml:"path"`
}

// BrokerageConfig holds brokerage API client configuration
type BrokerageConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *BrokerageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RatesConfig holds exchange rate resolver configuration
type RatesConfig struct {
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the per-provider timeout duration
func (c *RatesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// SheetsConfig holds spreadsheet backend configuration. The credential fields
// are populated from the environment, not from TOML.
type SheetsConfig struct {
	SpreadsheetID   string `toml:"-"`
	CredentialsJSON string `toml:"-"`
	CredentialsFile string `toml:"-"`
}

// TablesConfig names the tables damoa writes to.
type TablesConfig struct {
	Portfolio string `toml:"portfolio"`
	RateInfo  string `toml:"rate_info"`
	Notes     string `toml:"notes"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"` // "console" or "json"
	FilePath string `toml:"file_path"`
}

// accountSlots fixes the three collected accounts and their credential
// environment variable suffixes.
var accountSlots = []struct {
	Name   string
	Type   models.AccountType
	Suffix string
}{
	{"domestic", models.AccountTypeDomestic, "DOMESTIC"},
	{"pension", models.AccountTypePension, "PENSION"},
	{"overseas", models.AccountTypeOverseas, "OVERSEAS"},
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: "sheets",
			File:    FileConfig{Path: "data/tables"},
		},
		Brokerage: BrokerageConfig{
			BaseURL:   "https://openapi.koreainvestment.com:9443",
			RateLimit: 5,
			Timeout:   "30s",
		},
		Rates: RatesConfig{
			Timeout: "10s",
		},
		Tables: TablesConfig{
			Portfolio: "Portfolio",
			RateInfo:  "RateInfo",
			Notes:     "InvestmentNotes",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is honored before the environment
// is read, so account credentials can live beside the binary.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	loadCredentials(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DAMOA_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("DAMOA_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("DAMOA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("DAMOA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("DAMOA_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("DAMOA_DATA_PATH"); path != "" {
		config.Storage.File.Path = path
	}

	if base := os.Getenv("DAMOA_BROKERAGE_URL"); base != "" {
		config.Brokerage.BaseURL = base
	}
}

// loadCredentials reads account and spreadsheet credentials from the
// environment into the config. Validation of completeness happens later in
// Validate so tests can assemble partial configs.
func loadCredentials(config *Config) {
	config.Accounts = config.Accounts[:0]
	for _, slot := range accountSlots {
		config.Accounts = append(config.Accounts, models.Account{
			Name:      slot.Name,
			Type:      slot.Type,
			AccountNo: os.Getenv("KIS_ACC_NO_" + slot.Suffix),
			AppKey:    os.Getenv("KIS_API_KEY_" + slot.Suffix),
			AppSecret: os.Getenv("KIS_API_SECRET_" + slot.Suffix),
		})
	}

	config.Sheets.SpreadsheetID = os.Getenv("GOOGLE_SPREADSHEET_ID")
	config.Sheets.CredentialsJSON = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	config.Sheets.CredentialsFile = os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
}

// Validate checks that every required credential is present and the storage
// backend is known. All missing variables are reported in one error so the
// operator can fix the environment in a single pass.
func (c *Config) Validate() error {
	var missing []string

	for i, slot := range accountSlots {
		if i >= len(c.Accounts) {
			break
		}
		acc := c.Accounts[i]
		if acc.AccountNo == "" {
			missing = append(missing, "KIS_ACC_NO_"+slot.Suffix)
		}
		if acc.AppKey == "" {
			missing = append(missing, "KIS_API_KEY_"+slot.Suffix)
		}
		if acc.AppSecret == "" {
			missing = append(missing, "KIS_API_SECRET_"+slot.Suffix)
		}
	}

	switch c.Storage.Backend {
	case "sheets":
		if c.Sheets.SpreadsheetID == "" {
			missing = append(missing, "GOOGLE_SPREADSHEET_ID")
		}
		if c.Sheets.CredentialsJSON == "" && c.Sheets.CredentialsFile == "" {
			missing = append(missing, "GOOGLE_APPLICATION_CREDENTIALS_JSON or GOOGLE_SERVICE_ACCOUNT_FILE")
		}
	case "file":
		if c.Storage.File.Path == "" {
			return &models.ConfigError{Reason: "storage.file.path is empty"}
		}
	default:
		return &models.ConfigError{Reason: fmt.Sprintf("unknown storage backend %q", c.Storage.Backend)}
	}

	if len(missing) > 0 {
		return &models.ConfigError{Missing: missing}
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
