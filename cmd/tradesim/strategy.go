package main

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/engine"
	"github.com/quantsim/tradesim/internal/simulator"
	"github.com/quantsim/tradesim/internal/types"
	"github.com/quantsim/tradesim/pkg/indicator"
)

// smaCross is a demonstration strategy: a fast/slow moving-average
// crossover that targets a fixed position size in the cross direction,
// flipping through flat when the signal reverses.
type smaCross struct {
	fast     *indicator.SMA
	slow     *indicator.SMA
	quantity decimal.Decimal

	lastAbove bool
	primed    bool
}

func newSMACross(fastPeriod, slowPeriod int, quantity decimal.Decimal) *smaCross {
	return &smaCross{
		fast:     indicator.NewSMA(fastPeriod),
		slow:     indicator.NewSMA(slowPeriod),
		quantity: quantity,
	}
}

func (s *smaCross) Name() string {
	return "sma-cross"
}

func (s *smaCross) OnCandle(sim *simulator.Simulator, candle types.Candle) error {
	fast := s.fast.Update(candle.Close)
	slow := s.slow.Update(candle.Close)
	if !s.slow.Ready() {
		return nil
	}

	above := fast.GreaterThan(slow)
	if !s.primed {
		s.primed = true
		s.lastAbove = above
		return nil
	}
	if above == s.lastAbove {
		return nil
	}
	s.lastAbove = above

	side := types.SideSell
	if above {
		side = types.SideBuy
	}

	// Order size covers closing any opposite position plus the new target.
	qty := s.quantity
	pos := sim.GetPosition()
	if (side == types.SideBuy && pos.IsShort()) || (side == types.SideSell && pos.IsLong()) {
		qty = qty.Add(pos.Quantity.Abs())
	}

	_, err := sim.PlaceOrder(engine.Request{
		Type:     types.OrderTypeMarket,
		Side:     side,
		Quantity: qty,
	})
	if err != nil {
		return fmt.Errorf("place %s order: %w", side, err)
	}
	return nil
}
