package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbol     string `yaml:"symbol"`
	DataSource struct {
		SignalCSV string `yaml:"signal_csv"`
		OFICSV    string `yaml:"ofi_csv"`
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
	} `yaml:"data_source"`
	Webhook struct {
		URL          string        `yaml:"url"`
		Username     string        `yaml:"username"`
		Color        int           `yaml:"color"`
		Timeout      time.Duration `yaml:"timeout"`
		DashboardURL string        `yaml:"dashboard_url"`
	} `yaml:"webhook"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Account struct {
		Balance   float64 `yaml:"balance"`
		RiskPct   float64 `yaml:"risk_pct"`
		StateFile string  `yaml:"state_file"`

		// values set by file or env before defaults, zero when unset
		explicitBalance float64
		explicitRiskPct float64
	} `yaml:"account"`
	Chart struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"chart"`
	Journal struct {
		TextPath string `yaml:"text_path"`
		CSVPath  string `yaml:"csv_path"`
	} `yaml:"journal"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing config file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Chart.Enabled = true

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		log.Warnf("load %s: %v", envPath, err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	cfg.applyEnv()
	cfg.Account.explicitBalance = cfg.Account.Balance
	cfg.Account.explicitRiskPct = cfg.Account.RiskPct
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("DASHBOARD_URL"); v != "" {
		c.Webhook.DashboardURL = v
	}
	if v := os.Getenv("SIGNAL_CSV"); v != "" {
		c.DataSource.SignalCSV = v
	}
	if v := os.Getenv("OFI_CSV"); v != "" {
		c.DataSource.OFICSV = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ACCOUNT_BALANCE"); v != "" {
		if balance, err := strconv.ParseFloat(v, 64); err == nil {
			c.Account.Balance = balance
		}
	}
	if v := os.Getenv("RISK_PCT"); v != "" {
		if riskPct, err := strconv.ParseFloat(v, 64); err == nil {
			c.Account.RiskPct = riskPct
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "BTCUSDT"
	}
	if c.DataSource.BaseURL == "" {
		if c.DataSource.SignalCSV == "" {
			c.DataSource.SignalCSV = "signal_output.csv"
		}
		if c.DataSource.OFICSV == "" {
			c.DataSource.OFICSV = "ofi_output.csv"
		}
	}
	if c.Webhook.Username == "" {
		c.Webhook.Username = "CryptoScalpBot 🤖"
	}
	if c.Webhook.Color == 0 {
		c.Webhook.Color = 65300
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 10 * time.Second
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "*/30 * * * * *"
	}
	if c.Account.Balance == 0 {
		c.Account.Balance = 1000
	}
	if c.Account.RiskPct == 0 {
		c.Account.RiskPct = 1.0
	}
	if c.Account.StateFile == "" {
		c.Account.StateFile = "data/account_state.json"
	}
	if c.Chart.Path == "" {
		c.Chart.Path = "chart.png"
	}
	if c.Journal.TextPath == "" {
		c.Journal.TextPath = "manual_trades_log.txt"
	}
	if c.Journal.CSVPath == "" {
		c.Journal.CSVPath = "trade_log.csv"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ExplicitAccount returns the account balance and risk percent that were set
// in the config file or environment. Values left to defaults are zero.
func (c *Config) ExplicitAccount() (balance, riskPct float64) {
	return c.Account.explicitBalance, c.Account.explicitRiskPct
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Webhook.URL == "" {
		return errors.New("webhook.url is required")
	}
	if c.DataSource.BaseURL == "" && c.DataSource.SignalCSV == "" {
		return errors.New("data_source.signal_csv or data_source.base_url is required")
	}
	if c.Account.Balance <= 0 {
		return errors.New("account.balance must be positive")
	}
	if c.Account.RiskPct <= 0 || c.Account.RiskPct > 100 {
		return errors.New("account.risk_pct must be in (0, 100]")
	}
	if c.Webhook.Timeout < 0 {
		return errors.New("webhook.timeout must not be negative")
	}
	return nil
}
