package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/sim"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the complete paper trading configuration.
type Config struct {
	Symbol         string   `json:"symbol" yaml:"symbol"`
	InitialBalance float64  `json:"initial_balance" yaml:"initial_balance"`
	CommissionRate float64  `json:"commission_rate" yaml:"commission_rate"`
	RiskTolerance  float64  `json:"risk_tolerance" yaml:"risk_tolerance"`
	MinConfidence  int      `json:"min_confidence" yaml:"min_confidence"`
	Leverage       int      `json:"leverage" yaml:"leverage"`
	Cooldown       Duration `json:"cooldown" yaml:"cooldown"`
	Interval       Duration `json:"interval" yaml:"interval"`
	AllowShort     bool     `json:"allow_short" yaml:"allow_short"`

	Risk       RiskConfig      `json:"risk" yaml:"risk"`
	Indicators IndicatorConfig `json:"indicators" yaml:"indicators"`
	Data       DataConfig      `json:"data" yaml:"data"`
	Store      StoreConfig     `json:"store" yaml:"store"`
	Journal    JournalConfig   `json:"journal" yaml:"journal"`
	Log        LogConfig       `json:"log" yaml:"log"`
	Metrics    MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// RiskConfig holds the account protection thresholds.
type RiskConfig struct {
	MaintenanceFraction float64 `json:"maintenance_fraction" yaml:"maintenance_fraction"`
	StopLossPct         float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct       float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	VolatilityThreshold float64 `json:"volatility_threshold" yaml:"volatility_threshold"`
}

type IndicatorConfig struct {
	FibLookback int `json:"fib_lookback" yaml:"fib_lookback"`
}

// DataConfig selects the market data source.
type DataConfig struct {
	Source        string `json:"source" yaml:"source"` // "csv" or "oanda"
	CSVPath       string `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
	OandaToken    string `json:"oanda_token,omitempty" yaml:"oanda_token,omitempty"`
	OandaPractice bool   `json:"oanda_practice" yaml:"oanda_practice"`
	Granularity   string `json:"granularity,omitempty" yaml:"granularity,omitempty"`
	Count         int    `json:"count" yaml:"count"`
}

type StoreConfig struct {
	Type string `json:"type" yaml:"type"` // "file" or "sqlite"
	Path string `json:"path" yaml:"path"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoadFromFile loads configuration from a file, YAML first with a JSON
// fallback, on top of Default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", multierr.Append(err, jerr))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Symbol) == "" {
		add("symbol is required")
	}
	if c.InitialBalance <= 0 {
		add("initial_balance must be positive")
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		add("commission_rate must be in [0, 1)")
	}
	if c.RiskTolerance < 0 || c.RiskTolerance > 1 {
		add("risk_tolerance must be between 0 and 1")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		add("min_confidence must be between 0 and 100")
	}
	if c.Leverage < sim.MinLeverage || c.Leverage > sim.MaxLeverage {
		add("leverage must be between %d and %d", sim.MinLeverage, sim.MaxLeverage)
	}
	if c.Cooldown < 0 {
		add("cooldown must not be negative")
	}
	if c.Interval <= 0 {
		add("interval must be positive")
	}

	if c.Risk.MaintenanceFraction <= 0 || c.Risk.MaintenanceFraction > 1 {
		add("risk.maintenance_fraction must be in (0, 1]")
	}
	if c.Risk.StopLossPct <= 0 {
		add("risk.stop_loss_pct must be positive")
	}
	if c.Risk.TakeProfitPct <= 0 {
		add("risk.take_profit_pct must be positive")
	}
	if c.Risk.VolatilityThreshold < 0 {
		add("risk.volatility_threshold must not be negative")
	}
	if c.Indicators.FibLookback < 2 {
		add("indicators.fib_lookback must be at least 2")
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.CSVPath == "" {
			add("data.csv_path required for csv source")
		}
	case "oanda":
	default:
		add("data.source must be 'csv' or 'oanda'")
	}
	if c.Data.Count < 2 {
		add("data.count must be at least 2")
	}

	switch c.Store.Type {
	case "file", "sqlite":
		if c.Store.Path == "" {
			add("store.path is required")
		}
	default:
		add("store.type must be 'file' or 'sqlite'")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			add("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			add("journal db_path required for SQLite type")
		}
	default:
		add("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	return nil
}

// Effective returns a copy tightened for the configured leverage.
func (c *Config) Effective() *Config {
	out := *c
	p := risk.Policy{RiskTolerance: c.RiskTolerance, MinConfidence: c.MinConfidence}.ForLeverage(c.Leverage)
	out.RiskTolerance = p.RiskTolerance
	out.MinConfidence = p.MinConfidence
	return &out
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Symbol:         "BTC-USD",
		InitialBalance: 10000,
		CommissionRate: 0.001,
		RiskTolerance:  0.5,
		MinConfidence:  60,
		Leverage:       1,
		Cooldown:       Duration(5 * time.Minute),
		Interval:       Duration(time.Minute),
		Risk: RiskConfig{
			MaintenanceFraction: 0.9,
			StopLossPct:         5,
			TakeProfitPct:       10,
			VolatilityThreshold: risk.DefaultVolatilityThreshold,
		},
		Indicators: IndicatorConfig{FibLookback: 50},
		Data: DataConfig{
			Source:        "csv",
			CSVPath:       "./data/BTC-USD.csv",
			OandaPractice: true,
			Granularity:   "H1",
			Count:         200,
		},
		Store: StoreConfig{
			Type: "file",
			Path: "./accounts",
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Log: LogConfig{Level: "info"},
	}
}
