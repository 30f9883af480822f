package backtest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/quantsim/tradesim/internal/engine"
	"github.com/quantsim/tradesim/internal/feed"
	"github.com/quantsim/tradesim/internal/simulator"
	"github.com/quantsim/tradesim/internal/types"
)

func candle(open, high, low, close string) types.Candle {
	return types.Candle{
		Open:   d(open),
		High:   d(high),
		Low:    d(low),
		Close:  d(close),
		Volume: d("1000"),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSim(t *testing.T) *simulator.Simulator {
	t.Helper()
	sim, err := simulator.New(simulator.DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	return sim
}

// buyOnceStrategy opens a one-unit long on the first candle and holds.
type buyOnceStrategy struct {
	bought bool
}

func (s *buyOnceStrategy) Name() string { return "buy-once" }

func (s *buyOnceStrategy) OnCandle(sim *simulator.Simulator, _ types.Candle) error {
	if s.bought {
		return nil
	}
	s.bought = true
	_, err := sim.PlaceOrder(engine.Request{
		Type:     types.OrderTypeMarket,
		Side:     types.SideBuy,
		Quantity: d("1"),
	})
	return err
}

type failingStrategy struct{ err error }

func (s *failingStrategy) Name() string { return "failing" }

func (s *failingStrategy) OnCandle(*simulator.Simulator, types.Candle) error {
	return s.err
}

func TestRunner_BuyAndHold(t *testing.T) {
	source := feed.NewMemoryFeed([]types.Candle{
		candle("100", "101", "99", "100"),
		candle("100", "103", "100", "102"),
		candle("102", "106", "102", "105"),
	})

	r := NewRunner(newSim(t), source, &buyOnceStrategy{}, quietLogger())
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.StartEquity.Equal(d("10000")) {
		t.Errorf("StartEquity = %s, want 10000", result.StartEquity)
	}
	// Long 1 from 100, marked at the final close 105.
	if !result.EndEquity.Equal(d("10005")) {
		t.Errorf("EndEquity = %s, want 10005", result.EndEquity)
	}
	if !result.TotalReturn.Equal(d("0.0005")) {
		t.Errorf("TotalReturn = %s, want 0.0005", result.TotalReturn)
	}
	if len(result.EquityCurve) != 3 {
		t.Errorf("equity curve has %d points, want 3", len(result.EquityCurve))
	}
	if !result.MaxDrawdown.IsZero() {
		t.Errorf("MaxDrawdown = %s, want 0 on a rising tape", result.MaxDrawdown)
	}
	// One opening fill, no realized trades.
	if len(result.Fills) != 1 || result.TotalTrades != 0 {
		t.Errorf("fills = %d, trades = %d, want 1 and 0", len(result.Fills), result.TotalTrades)
	}
}

func TestRunner_StrategyErrorAborts(t *testing.T) {
	source := feed.NewMemoryFeed([]types.Candle{
		candle("100", "101", "99", "100"),
	})
	boom := errors.New("boom")

	r := NewRunner(newSim(t), source, &failingStrategy{err: boom}, quietLogger())
	if _, err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want wrapped boom", err)
	}
}

func TestRunner_InvalidCandleAborts(t *testing.T) {
	source := feed.NewMemoryFeed([]types.Candle{
		{Open: d("100"), High: d("99"), Low: d("101"), Close: d("100"), Volume: d("1")},
	})

	r := NewRunner(newSim(t), source, &buyOnceStrategy{}, quietLogger())
	if _, err := r.Run(context.Background()); !errors.Is(err, types.ErrInvalidMarketData) {
		t.Errorf("Run error = %v, want ErrInvalidMarketData", err)
	}
}

func TestRunner_EmptyFeed(t *testing.T) {
	r := NewRunner(newSim(t), feed.NewMemoryFeed(nil), &buyOnceStrategy{}, quietLogger())
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.StartEquity.Equal(result.EndEquity) {
		t.Error("equity changed with no candles")
	}
	if len(result.EquityCurve) != 0 {
		t.Errorf("equity curve has %d points, want 0", len(result.EquityCurve))
	}
}
