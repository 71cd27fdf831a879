package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// Config is the complete backtester configuration.
type Config struct {
	Data     DataConfig      `json:"data" yaml:"data"`
	Backtest backtest.Config `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig  `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig   `json:"journal" yaml:"journal"`
	Log      LogConfig       `json:"log" yaml:"log"`
	Server   ServerConfig    `json:"server" yaml:"server"`
}

// DataConfig selects the candle series and where it is stored.
type DataConfig struct {
	Exchange  string `json:"exchange" yaml:"exchange"`
	Symbol    string `json:"symbol" yaml:"symbol"`
	Timeframe string `json:"timeframe" yaml:"timeframe"`
	DBPath    string `json:"db_path" yaml:"db_path"`

	// Start and End are YYYY-MM-DD or RFC3339, both inclusive. Empty means
	// unbounded.
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`

	// UseClean reads the sanitized table instead of the raw one.
	UseClean bool `json:"use_clean" yaml:"use_clean"`
}

// StrategyConfig names the strategy and its parameters.
type StrategyConfig struct {
	Name    string `json:"name" yaml:"name"`
	EMAFast int    `json:"ema_fast" yaml:"ema_fast"`
	EMASlow int    `json:"ema_slow" yaml:"ema_slow"`
}

// JournalConfig holds the output directories. An empty directory disables
// that output.
type JournalConfig struct {
	TradesDir string `json:"trades_dir" yaml:"trades_dir"`
	ReportDir string `json:"report_dir" yaml:"report_dir"`
	ChartDir  string `json:"chart_dir" yaml:"chart_dir"`
	OrgDir    string `json:"org_dir" yaml:"org_dir"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json or console
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LoadFromFile loads configuration from a YAML or JSON file. Fields missing
// from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Normalize trims whitespace from the series selectors and the strategy
// name so they match stored rows.
func (c *Config) Normalize() {
	s := c.Data.Series().Normalize()
	c.Data.Exchange, c.Data.Symbol, c.Data.Timeframe = s.Exchange, s.Symbol, s.Timeframe
	c.Strategy.Name = strings.TrimSpace(c.Strategy.Name)
}

// Validate checks if the configuration is valid. An unknown timeframe is
// reported as a *market.ConfigurationError.
func (c *Config) Validate() error {
	if c.Data.Exchange == "" {
		return fmt.Errorf("data.exchange is required")
	}
	if c.Data.Symbol == "" {
		return fmt.Errorf("data.symbol is required")
	}
	if _, err := market.Step(c.Data.Timeframe); err != nil {
		return err
	}
	if c.Data.DBPath == "" {
		return fmt.Errorf("data.db_path is required")
	}
	start, end, err := c.Data.Range()
	if err != nil {
		return err
	}
	if end > 0 && start > end {
		return fmt.Errorf("data.start must not be after data.end")
	}

	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive")
	}
	if c.Backtest.Commission < 0 {
		return fmt.Errorf("backtest.commission_per_trade must not be negative")
	}
	if c.Backtest.Slippage < 0 {
		return fmt.Errorf("backtest.slippage_per_trade must not be negative")
	}

	if _, err := strategies.ByName(c.Strategy.Name, c.Strategy.Params()); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	return nil
}

// Series is the candle series the configuration selects.
func (d DataConfig) Series() market.Series {
	return market.Series{Exchange: d.Exchange, Symbol: d.Symbol, Timeframe: d.Timeframe}
}

// Range returns Start and End as epoch milliseconds, 0 when unset. A date-only
// End covers the whole day.
func (d DataConfig) Range() (start, end int64, err error) {
	if d.Start != "" {
		t, _, err := ParseDate(d.Start)
		if err != nil {
			return 0, 0, fmt.Errorf("data.start: %w", err)
		}
		start = t.UnixMilli()
	}
	if d.End != "" {
		t, dateOnly, err := ParseDate(d.End)
		if err != nil {
			return 0, 0, fmt.Errorf("data.end: %w", err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		end = t.UnixMilli()
	}
	return start, end, nil
}

// ParseDate accepts YYYY-MM-DD (UTC midnight) or RFC3339.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t.UTC(), false, nil
}

// Params converts the strategy section to strategy parameters.
func (s StrategyConfig) Params() strategies.Params {
	return strategies.Params{Fast: s.EMAFast, Slow: s.EMASlow}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Exchange:  "binance",
			Symbol:    "BTC/USDT",
			Timeframe: "15m",
			DBPath:    "./data/market.db",
			UseClean:  true,
		},
		Backtest: backtest.DefaultConfig(),
		Strategy: StrategyConfig{
			Name:    "ema_cross",
			EMAFast: 9,
			EMASlow: 21,
		},
		Journal: JournalConfig{
			TradesDir: "./output/trades",
			ReportDir: "./output/reports",
			ChartDir:  "./output/charts",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
