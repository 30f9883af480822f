package engine

import (
	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// priceClock holds the latest candle seen by the engine. Before the first
// market update the clock is empty and market orders are rejected.
type priceClock struct {
	candle types.Candle
	seen   bool
}

func (c *priceClock) set(candle types.Candle) {
	c.candle = candle
	c.seen = true
}

func (c *priceClock) lastClose() (decimal.Decimal, bool) {
	if !c.seen {
		return decimal.Zero, false
	}
	return c.candle.Close, true
}

func (c *priceClock) reset() {
	c.candle = types.Candle{}
	c.seen = false
}
