package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Market.CollateralRatioBps != 15000 {
		t.Fatalf("expected collateral ratio 15000 got %d", cfg.Market.CollateralRatioBps)
	}
	if cfg.Market.MinLoanAmount != 10_000000 || cfg.Market.MaxLoanAmount != 100000_000000 {
		t.Fatalf("unexpected loan bounds %d..%d", cfg.Market.MinLoanAmount, cfg.Market.MaxLoanAmount)
	}
	if cfg.Agent.MaxPollAttempts != 20 {
		t.Fatalf("expected 20 poll attempts got %d", cfg.Agent.MaxPollAttempts)
	}
	if cfg.Market.FreshnessWindow().Hours() != 24 {
		t.Fatalf("expected 24h freshness window")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lendada.toml")
	body := `
Listen = "127.0.0.1:9999"
DatabaseURL = "postgres://file"

[Market]
MinDurationDays = 14
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LENDADA_DB_URL", "postgres://env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Fatalf("listen not read from file: %q", cfg.Listen)
	}
	if cfg.DatabaseURL != "postgres://env" {
		t.Fatalf("env override not applied: %q", cfg.DatabaseURL)
	}
	if cfg.Market.MinDurationDays != 14 {
		t.Fatalf("market section not read: %d", cfg.Market.MinDurationDays)
	}
	if cfg.Market.MaxDurationDays != 365 {
		t.Fatalf("defaults not applied alongside file values")
	}
}

func TestValidateRejectsInvertedBounds(t *testing.T) {
	cfg := Default()
	cfg.Market.MinLoanAmount = cfg.Market.MaxLoanAmount
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for inverted loan bounds")
	}
}
