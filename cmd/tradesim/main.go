// Package main is the entry point for the tradesim tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/backtest"
	"github.com/quantsim/tradesim/internal/config"
	"github.com/quantsim/tradesim/internal/feed"
	"github.com/quantsim/tradesim/internal/metrics"
	"github.com/quantsim/tradesim/internal/persistence"
	"github.com/quantsim/tradesim/internal/simulator"
)

// Version information (set by build flags).
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tradesim - deterministic single-instrument trading simulator

Usage:
  tradesim <command> [options]

Commands:
  backtest   Run a simulation over a CSV or synthetic candle feed
  validate   Validate a configuration file
  version    Show version information
  help       Show this help message

Examples:
  tradesim backtest --config config.yaml
  tradesim backtest --data data/eurusd_1m.csv
  tradesim validate --config config.yaml`)
}

func cmdVersion() {
	fmt.Printf("tradesim version %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Initial balance: %.2f\n", cfg.Simulator.InitialBalance)
	fmt.Printf("  PnL mode: %s\n", cfg.Simulator.PnLMode)
	fmt.Printf("  Fee rate: %g\n", cfg.Simulator.FeeRate)
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file (optional)")
	dataPath := fs.String("data", "", "OHLCV CSV file (overrides config)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if *dataPath != "" {
		cfg.Backtest.DataPath = *dataPath
	}

	if err := runBacktest(context.Background(), cfg, logger); err != nil {
		logger.Error("backtest failed", "error", err)
		os.Exit(1)
	}
}

func runBacktest(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	simCfg, err := cfg.SimulatorConfig()
	if err != nil {
		return err
	}
	sim, err := simulator.New(simCfg, logger)
	if err != nil {
		return err
	}

	var source feed.Feed
	if cfg.Backtest.DataPath != "" {
		source = feed.NewCSVFeed(cfg.Backtest.DataPath)
	} else {
		synthCfg := feed.DefaultSyntheticConfig()
		synthCfg.Candles = cfg.Backtest.SyntheticCandles
		synthCfg.Seed = cfg.Backtest.SyntheticSeed
		source = feed.NewSynthetic(synthCfg)
	}
	defer source.Close()

	if cfg.Backtest.ReplayPerSecond > 0 {
		source = feed.NewReplay(source, cfg.Backtest.ReplayPerSecond)
	}

	strategy := newSMACross(
		cfg.Backtest.FastPeriod,
		cfg.Backtest.SlowPeriod,
		decimal.NewFromFloat(cfg.Backtest.OrderQuantity),
	)
	runner := backtest.NewRunner(sim, source, strategy, logger)

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(metrics.ServerConfig{
			Port:        cfg.Metrics.Port,
			MetricsPath: cfg.Metrics.Path,
		}, logger)
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
		runner = runner.WithMetrics(metrics.NewRecorder())
	}

	if cfg.Persistence.Enabled {
		repo, err := persistence.NewSQLiteRepository(cfg.Persistence.Path)
		if err != nil {
			return err
		}
		defer repo.Close()
		runner = runner.WithJournal(repo, uuid.New().String())
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *backtest.Result) {
	fmt.Println("Backtest result")
	fmt.Printf("  Start equity:  %s\n", result.StartEquity.StringFixed(2))
	fmt.Printf("  End equity:    %s\n", result.EndEquity.StringFixed(2))
	fmt.Printf("  Total return:  %s%%\n", result.TotalReturn.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Printf("  Max drawdown:  %s%%\n", result.MaxDrawdown.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Printf("  Trades:        %d (%d win / %d loss)\n", result.TotalTrades, result.WinningTrades, result.LosingTrades)
	if result.TotalTrades > 0 {
		fmt.Printf("  Win rate:      %s%%\n", result.WinRate.Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	if result.ProfitFactor.IsPositive() {
		fmt.Printf("  Profit factor: %s\n", result.ProfitFactor.StringFixed(2))
	}
	fmt.Printf("  Fees paid:     %s\n", result.TotalFees.StringFixed(2))
	fmt.Printf("  Fills:         %d\n", len(result.Fills))
}
