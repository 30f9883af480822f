package config

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestLoadFromBytes(t *testing.T) {
	yaml := `
simulator:
  initial_balance: 50000
  pnl_mode: ticks
  tick_size: 0.25
  tick_value: 5
  fee_rate: 0.001
  leverage: 10
backtest:
  synthetic_candles: 500
  synthetic_seed: 7
  fast_period: 5
  slow_period: 20
  order_quantity: 2
metrics:
  enabled: true
  port: 9191
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	if cfg.Simulator.InitialBalance != 50000 {
		t.Errorf("InitialBalance = %v, want 50000", cfg.Simulator.InitialBalance)
	}
	if cfg.Simulator.PnLMode != "ticks" {
		t.Errorf("PnLMode = %q, want ticks", cfg.Simulator.PnLMode)
	}
	if cfg.Backtest.SlowPeriod != 20 {
		t.Errorf("SlowPeriod = %d, want 20", cfg.Backtest.SlowPeriod)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9191 {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	// Unset fields keep their defaults.
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Path = %q, want default /metrics", cfg.Metrics.Path)
	}
}

func TestLoadFromBytes_ExpandsEnv(t *testing.T) {
	t.Setenv("TRADESIM_DB", "/tmp/test.db")

	yaml := `
persistence:
  enabled: true
  path: ${TRADESIM_DB}
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if cfg.Persistence.Path != "/tmp/test.db" {
		t.Errorf("Path = %q, want /tmp/test.db", cfg.Persistence.Path)
	}
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "simulator: ["},
		{"unknown mode", "simulator:\n  pnl_mode: lira\n"},
		{"negative balance", "simulator:\n  initial_balance: -1\n"},
		{"zero leverage", "simulator:\n  leverage: 0\n"},
		{"slow not above fast", "backtest:\n  fast_period: 30\n  slow_period: 10\n"},
		{"metrics port out of range", "metrics:\n  enabled: true\n  port: 70000\n"},
		{"journal without path", "persistence:\n  enabled: true\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.yaml)); err == nil {
				t.Error("LoadFromBytes() succeeded, want error")
			}
		})
	}
}

func TestSimulatorConfig_Conversion(t *testing.T) {
	cfg := Default()
	cfg.Simulator.PnLMode = "pips"
	cfg.Simulator.PipSize = 0.0001
	cfg.Simulator.InitialBalance = 2500.5

	sc, err := cfg.SimulatorConfig()
	if err != nil {
		t.Fatalf("SimulatorConfig: %v", err)
	}

	if sc.Mode != types.PnLModePips {
		t.Errorf("Mode = %s, want PIPS", sc.Mode)
	}
	if !sc.InitialBalance.Equal(decimal.RequireFromString("2500.5")) {
		t.Errorf("InitialBalance = %s, want 2500.5", sc.InitialBalance)
	}
	if !sc.PipSize.Equal(decimal.RequireFromString("0.0001")) {
		t.Errorf("PipSize = %s, want 0.0001", sc.PipSize)
	}
}

func TestSimulatorConfig_UnknownMode(t *testing.T) {
	cfg := Default()
	cfg.Simulator.PnLMode = "bananas"

	if _, err := cfg.SimulatorConfig(); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
