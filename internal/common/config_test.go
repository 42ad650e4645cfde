package common

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/damoa-dev/damoa/internal/models"
)

func setAccountEnv(t *testing.T, value string) {
	t.Helper()
	for _, suffix := range []string{"DOMESTIC", "PENSION", "OVERSEAS"} {
		t.Setenv("KIS_ACC_NO_"+suffix, value)
		t.Setenv("KIS_API_KEY_"+suffix, value)
		t.Setenv("KIS_API_SECRET_"+suffix, value)
	}
}

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_DefaultTables(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Tables.Portfolio != "Portfolio" || cfg.Tables.RateInfo != "RateInfo" || cfg.Tables.Notes != "InvestmentNotes" {
		t.Errorf("table defaults wrong: %+v", cfg.Tables)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("DAMOA_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_StorageBackendEnvOverride(t *testing.T) {
	t.Setenv("DAMOA_STORAGE_BACKEND", "FILE")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, "file")
	}
}

func TestConfig_ValidateAllMissing(t *testing.T) {
	setAccountEnv(t, "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")

	cfg := NewDefaultConfig()
	loadCredentials(cfg)

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() passed with every credential missing")
	}
	var cerr *models.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("unexpected error type %T", err)
	}
	// 9 account variables + spreadsheet id + credentials.
	if len(cerr.Missing) != 11 {
		t.Errorf("error names %d variables, want 11: %v", len(cerr.Missing), cerr.Missing)
	}
	for _, suffix := range []string{"DOMESTIC", "PENSION", "OVERSEAS"} {
		for _, prefix := range []string{"KIS_ACC_NO_", "KIS_API_KEY_", "KIS_API_SECRET_"} {
			if !slices.Contains(cerr.Missing, prefix+suffix) {
				t.Errorf("missing list lacks %s", prefix+suffix)
			}
		}
	}
	if !slices.Contains(cerr.Missing, "GOOGLE_SPREADSHEET_ID") {
		t.Errorf("missing list lacks GOOGLE_SPREADSHEET_ID: %v", cerr.Missing)
	}
}

func TestConfig_ValidateAllPresent(t *testing.T) {
	setAccountEnv(t, "x")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)

	cfg := NewDefaultConfig()
	loadCredentials(cfg)

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v with every credential present", err)
	}
}

func TestConfig_ValidateFileBackendSkipsSheetCredentials(t *testing.T) {
	setAccountEnv(t, "x")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")

	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "file"
	loadCredentials(cfg)

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v for file backend without sheet credentials", err)
	}
}

func TestConfig_ValidateUnknownBackend(t *testing.T) {
	setAccountEnv(t, "x")

	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "redis"
	loadCredentials(cfg)

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() passed with unknown storage backend")
	}
}

func TestConfig_TOMLMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "damoa.toml")
	data := []byte("[server]\nport = 7070\n\n[tables]\nportfolio = \"Holdings\"\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d from TOML, want 7070", cfg.Server.Port)
	}
	if cfg.Tables.Portfolio != "Holdings" {
		t.Errorf("Tables.Portfolio = %q from TOML, want Holdings", cfg.Tables.Portfolio)
	}
	// Untouched sections keep their defaults.
	if cfg.Brokerage.BaseURL == "" {
		t.Error("Brokerage.BaseURL default lost during merge")
	}
}
