// Package config handles configuration loading and validation for the
// tradesim binary.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/quantsim/tradesim/internal/simulator"
	"github.com/quantsim/tradesim/internal/types"
)

// Config represents the full application configuration.
type Config struct {
	Simulator   SimulatorConfig   `yaml:"simulator"`
	Backtest    BacktestConfig    `yaml:"backtest"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

// SimulatorConfig holds the simulator construction parameters.
type SimulatorConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
	PnLMode        string  `yaml:"pnl_mode"` // fiat | ticks | pips | points
	FeeRate        float64 `yaml:"fee_rate"`
	FixedFee       float64 `yaml:"fixed_fee"`
	MinFee         float64 `yaml:"min_fee"`
	MaxFee         float64 `yaml:"max_fee"`
	TickSize       float64 `yaml:"tick_size"`
	TickValue      float64 `yaml:"tick_value"`
	PipSize        float64 `yaml:"pip_size"`
	PointValue     float64 `yaml:"point_value"`
	Leverage       float64 `yaml:"leverage"`
}

// BacktestConfig holds backtest settings.
type BacktestConfig struct {
	DataPath         string  `yaml:"data_path"` // CSV file; empty = synthetic feed
	SyntheticCandles int     `yaml:"synthetic_candles"`
	SyntheticSeed    int64   `yaml:"synthetic_seed"`
	ReplayPerSecond  float64 `yaml:"replay_per_second"` // 0 = unthrottled
	FastPeriod       int     `yaml:"fast_period"`
	SlowPeriod       int     `yaml:"slow_period"`
	OrderQuantity    float64 `yaml:"order_quantity"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// PersistenceConfig holds journal settings.
type PersistenceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a runnable configuration: fee-free FIAT simulation over a
// seeded synthetic feed.
func Default() Config {
	return Config{
		Simulator: SimulatorConfig{
			InitialBalance: 10000,
			PnLMode:        "fiat",
			Leverage:       1,
		},
		Backtest: BacktestConfig{
			SyntheticCandles: 1000,
			SyntheticSeed:    1,
			FastPeriod:       10,
			SlowPeriod:       30,
			OrderQuantity:    1,
		},
		Metrics: MetricsConfig{Port: 9090, Path: "/metrics"},
		Persistence: PersistenceConfig{
			Path: "tradesim.db",
		},
	}
}

// Load loads configuration from a YAML file. Environment variables in the
// file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := types.ParsePnLMode(c.Simulator.PnLMode); err != nil {
		return err
	}
	if c.Simulator.InitialBalance < 0 {
		return fmt.Errorf("%w: initial_balance must not be negative", types.ErrInvalidConfig)
	}
	if c.Simulator.Leverage <= 0 {
		return fmt.Errorf("%w: leverage must be positive", types.ErrInvalidConfig)
	}
	if c.Backtest.OrderQuantity <= 0 {
		return fmt.Errorf("%w: order_quantity must be positive", types.ErrInvalidConfig)
	}
	if c.Backtest.FastPeriod <= 0 || c.Backtest.SlowPeriod <= c.Backtest.FastPeriod {
		return fmt.Errorf("%w: need 0 < fast_period < slow_period", types.ErrInvalidConfig)
	}
	if c.Backtest.DataPath == "" && c.Backtest.SyntheticCandles <= 0 {
		return fmt.Errorf("%w: synthetic_candles must be positive without a data_path", types.ErrInvalidConfig)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("%w: metrics port out of range", types.ErrInvalidConfig)
	}
	if c.Persistence.Enabled && c.Persistence.Path == "" {
		return fmt.Errorf("%w: persistence path required when enabled", types.ErrInvalidConfig)
	}
	return nil
}

// SimulatorConfig converts the YAML view into the simulator's decimal
// configuration.
func (c *Config) SimulatorConfig() (simulator.Config, error) {
	mode, err := types.ParsePnLMode(c.Simulator.PnLMode)
	if err != nil {
		return simulator.Config{}, err
	}

	return simulator.Config{
		InitialBalance: decimal.NewFromFloat(c.Simulator.InitialBalance),
		Mode:           mode,
		FeeRate:        decimal.NewFromFloat(c.Simulator.FeeRate),
		FixedFee:       decimal.NewFromFloat(c.Simulator.FixedFee),
		MinFee:         decimal.NewFromFloat(c.Simulator.MinFee),
		MaxFee:         decimal.NewFromFloat(c.Simulator.MaxFee),
		TickSize:       decimal.NewFromFloat(c.Simulator.TickSize),
		TickValue:      decimal.NewFromFloat(c.Simulator.TickValue),
		PipSize:        decimal.NewFromFloat(c.Simulator.PipSize),
		PointValue:     decimal.NewFromFloat(c.Simulator.PointValue),
		Leverage:       decimal.NewFromFloat(c.Simulator.Leverage),
	}, nil
}
