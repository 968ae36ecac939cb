package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config captures the runtime settings for lendadad.
type Config struct {
	Listen      string `toml:"Listen"`
	Environment string `toml:"Environment"`
	DatabaseURL string `toml:"DatabaseURL"`
	LogFile     string `toml:"LogFile"`

	WalletBaseURL    string `toml:"WalletBaseURL"`
	IndexerBaseURL   string `toml:"IndexerBaseURL"`
	IndexerProjectID string `toml:"IndexerProjectID"`
	SubmitTimeoutSec int    `toml:"SubmitTimeoutSeconds"`

	Market MarketConfig `toml:"Market"`
	Agent  AgentConfig  `toml:"Agent"`
	Ops    OpsConfig    `toml:"Ops"`
}

// MarketConfig holds the loan-market constants. Amounts are lovelace,
// the ratio is basis points.
type MarketConfig struct {
	CollateralRatioBps int   `toml:"CollateralRatioBps"`
	MinLoanAmount      int64 `toml:"MinLoanAmount"`
	MaxLoanAmount      int64 `toml:"MaxLoanAmount"`
	MinDurationDays    int   `toml:"MinDurationDays"`
	MaxDurationDays    int   `toml:"MaxDurationDays"`
	FreshnessHours     int   `toml:"CreditCheckFreshnessHours"`
}

// AgentConfig controls the scoring job manager and its poll client.
type AgentConfig struct {
	PollIntervalMillis int `toml:"PollIntervalMillis"`
	MaxPollAttempts    int `toml:"MaxPollAttempts"`
	JobRetentionMins   int `toml:"JobRetentionMinutes"`
}

// OpsConfig guards the operator surface. When JWTSecret is empty the
// /ops routes are disabled.
type OpsConfig struct {
	JWTSecret  string  `toml:"JWTSecret"`
	Issuer     string  `toml:"Issuer"`
	Audience   string  `toml:"Audience"`
	RatePerMin float64 `toml:"RatePerMinute"`
}

const (
	defaultListen           = "0.0.0.0:8090"
	defaultCollateralBps    = 15000
	defaultMinLoanLovelace  = 10_000000
	defaultMaxLoanLovelace  = 100000_000000
	defaultMinDurationDays  = 7
	defaultMaxDurationDays  = 365
	defaultFreshnessHours   = 24
	defaultPollMillis       = 1000
	defaultMaxPollAttempts  = 20
	defaultJobRetentionMins = 60
	defaultSubmitTimeout    = 15
)

// Default returns the built-in configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the TOML configuration at path and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.SubmitTimeoutSec <= 0 {
		cfg.SubmitTimeoutSec = defaultSubmitTimeout
	}
	if cfg.Market.CollateralRatioBps <= 0 {
		cfg.Market.CollateralRatioBps = defaultCollateralBps
	}
	if cfg.Market.MinLoanAmount <= 0 {
		cfg.Market.MinLoanAmount = defaultMinLoanLovelace
	}
	if cfg.Market.MaxLoanAmount <= 0 {
		cfg.Market.MaxLoanAmount = defaultMaxLoanLovelace
	}
	if cfg.Market.MinDurationDays <= 0 {
		cfg.Market.MinDurationDays = defaultMinDurationDays
	}
	if cfg.Market.MaxDurationDays <= 0 {
		cfg.Market.MaxDurationDays = defaultMaxDurationDays
	}
	if cfg.Market.FreshnessHours <= 0 {
		cfg.Market.FreshnessHours = defaultFreshnessHours
	}
	if cfg.Agent.PollIntervalMillis <= 0 {
		cfg.Agent.PollIntervalMillis = defaultPollMillis
	}
	if cfg.Agent.MaxPollAttempts <= 0 {
		cfg.Agent.MaxPollAttempts = defaultMaxPollAttempts
	}
	if cfg.Agent.JobRetentionMins <= 0 {
		cfg.Agent.JobRetentionMins = defaultJobRetentionMins
	}
	if cfg.Ops.RatePerMin <= 0 {
		cfg.Ops.RatePerMin = 60
	}
}

func (cfg *Config) applyEnv() {
	cfg.Listen = stringFromEnv("LENDADA_LISTEN", cfg.Listen)
	cfg.Environment = stringFromEnv("LENDADA_ENV", cfg.Environment)
	cfg.DatabaseURL = stringFromEnv("LENDADA_DB_URL", cfg.DatabaseURL)
	cfg.LogFile = stringFromEnv("LENDADA_LOG_FILE", cfg.LogFile)
	cfg.WalletBaseURL = stringFromEnv("LENDADA_WALLET_BASE_URL", cfg.WalletBaseURL)
	cfg.IndexerBaseURL = stringFromEnv("LENDADA_INDEXER_BASE_URL", cfg.IndexerBaseURL)
	cfg.IndexerProjectID = stringFromEnv("LENDADA_INDEXER_PROJECT_ID", cfg.IndexerProjectID)
	cfg.Ops.JWTSecret = stringFromEnv("LENDADA_OPS_JWT_SECRET", cfg.Ops.JWTSecret)
	cfg.SubmitTimeoutSec = intFromEnv("LENDADA_SUBMIT_TIMEOUT_SECONDS", cfg.SubmitTimeoutSec)
}

// Validate ensures the configuration is internally consistent.
func (cfg *Config) Validate() error {
	if cfg.Market.MinLoanAmount >= cfg.Market.MaxLoanAmount {
		return fmt.Errorf("config: min loan amount must be below max loan amount")
	}
	if cfg.Market.MinDurationDays >= cfg.Market.MaxDurationDays {
		return fmt.Errorf("config: min duration must be below max duration")
	}
	if cfg.Market.CollateralRatioBps < 10000 {
		return fmt.Errorf("config: collateral ratio below 100%% is not supported")
	}
	return nil
}

// SubmitTimeout returns the ledger submission timeout as a duration.
func (cfg *Config) SubmitTimeout() time.Duration {
	return time.Duration(cfg.SubmitTimeoutSec) * time.Second
}

// FreshnessWindow returns the credit-check freshness window.
func (m MarketConfig) FreshnessWindow() time.Duration {
	return time.Duration(m.FreshnessHours) * time.Hour
}

// PollInterval returns the poll client interval.
func (a AgentConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalMillis) * time.Millisecond
}

// JobRetention returns the retention window for terminal jobs.
func (a AgentConfig) JobRetention() time.Duration {
	return time.Duration(a.JobRetentionMins) * time.Minute
}

// Sanitized returns a copy of the Config with secrets masked for logging.
func (cfg Config) Sanitized() Config {
	clone := cfg
	if clone.Ops.JWTSecret != "" {
		clone.Ops.JWTSecret = "***"
	}
	if clone.IndexerProjectID != "" {
		clone.IndexerProjectID = "***"
	}
	return clone
}

func stringFromEnv(key, fallback string) string {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

func intFromEnv(key string, fallback int) int {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}
