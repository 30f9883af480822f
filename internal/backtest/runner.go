// Package backtest drives a simulator through a candle feed under a
// strategy and reports performance.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/feed"
	"github.com/quantsim/tradesim/internal/metrics"
	"github.com/quantsim/tradesim/internal/persistence"
	"github.com/quantsim/tradesim/internal/simulator"
	"github.com/quantsim/tradesim/internal/types"
)

// Strategy reacts to each candle by placing or cancelling orders on the
// simulator. The candle has already been applied when OnCandle runs.
type Strategy interface {
	Name() string
	OnCandle(sim *simulator.Simulator, candle types.Candle) error
}

// EquityPoint is one point of the run's equity curve.
type EquityPoint struct {
	Seq      int64
	Balance  decimal.Decimal
	Equity   decimal.Decimal
	Drawdown decimal.Decimal
}

// Runner executes one backtest.
type Runner struct {
	sim      *simulator.Simulator
	source   feed.Feed
	strategy Strategy
	logger   *slog.Logger

	// Optional hooks; nil disables them.
	recorder *metrics.Recorder
	repo     persistence.Repository
	runID    string

	equityCurve []EquityPoint
	highWater   decimal.Decimal
}

// NewRunner creates a runner over the given simulator, feed and strategy.
func NewRunner(sim *simulator.Simulator, source feed.Feed, strategy Strategy, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		sim:      sim,
		source:   source,
		strategy: strategy,
		logger:   logger,
	}
}

// WithMetrics enables Prometheus recording during the run.
func (r *Runner) WithMetrics(rec *metrics.Recorder) *Runner {
	r.recorder = rec
	return r
}

// WithJournal persists fills and the equity curve under the given run id.
func (r *Runner) WithJournal(repo persistence.Repository, runID string) *Runner {
	r.repo = repo
	r.runID = runID
	return r
}

// Run consumes the feed to exhaustion (or context cancellation) and
// returns the performance report.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	candles, err := r.source.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe feed: %w", err)
	}

	startEquity := r.sim.Equity()
	r.highWater = startEquity
	bar := int64(0)

	r.logger.Info("backtest started",
		"feed", r.source.Name(),
		"strategy", r.strategy.Name(),
		"start_equity", startEquity,
	)

	for candle := range candles {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		bar++

		fills, err := r.sim.UpdateMarket(candle)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", bar, err)
		}
		if err := r.strategy.OnCandle(r.sim, candle); err != nil {
			return nil, fmt.Errorf("bar %d: strategy: %w", bar, err)
		}

		r.observe(ctx, bar, fills)
	}

	result := r.buildResult(startEquity)

	r.logger.Info("backtest finished",
		"bars", bar,
		"end_equity", result.EndEquity,
		"total_return", result.TotalReturn,
		"max_drawdown", result.MaxDrawdown,
		"trades", result.TotalTrades,
	)
	return result, nil
}

// observe tracks the equity curve and feeds the optional hooks.
func (r *Runner) observe(ctx context.Context, bar int64, fills []types.Fill) {
	balance := r.sim.Balance()
	equity := r.sim.Equity()

	if equity.GreaterThan(r.highWater) {
		r.highWater = equity
	}
	drawdown := decimal.Zero
	if r.highWater.IsPositive() {
		drawdown = r.highWater.Sub(equity).Div(r.highWater)
	}

	point := EquityPoint{Seq: bar, Balance: balance, Equity: equity, Drawdown: drawdown}
	r.equityCurve = append(r.equityCurve, point)

	if r.recorder != nil {
		r.recorder.RecordCandle()
		r.recorder.RecordAccount(balance, equity)
		r.recorder.RecordPnL(r.sim.GetPnL())
		r.recorder.RecordPosition(r.sim.GetPosition())
		r.recorder.RecordPendingOrders(len(r.sim.GetPendingOrders()))
		for _, f := range fills {
			r.recorder.RecordFill(f)
		}
	}

	if r.repo != nil {
		for _, f := range fills {
			if err := r.repo.SaveFill(ctx, r.runID, f); err != nil {
				r.logger.Warn("journal fill", "error", err)
			}
		}
		err := r.repo.SaveEquityPoint(ctx, r.runID, persistence.EquityPoint{
			Seq:      point.Seq,
			Balance:  point.Balance,
			Equity:   point.Equity,
			Drawdown: point.Drawdown,
		})
		if err != nil {
			r.logger.Warn("journal equity point", "error", err)
		}
	}
}

func (r *Runner) buildResult(startEquity decimal.Decimal) *Result {
	fills := r.sim.GetTradeHistory()
	result := &Result{
		StartEquity: startEquity,
		EndEquity:   r.sim.Equity(),
		Fills:       fills,
		EquityCurve: r.equityCurve,
	}
	result.compute()
	return result
}
