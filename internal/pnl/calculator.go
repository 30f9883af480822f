// Package pnl converts price deltas into profit-and-loss amounts under the
// four supported quoting conventions.
package pnl

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// Params holds the mode-specific scaling parameters. Only the fields
// required by the selected mode are validated.
type Params struct {
	TickSize   decimal.Decimal // TICKS: size of one tick
	TickValue  decimal.Decimal // TICKS: value of one tick per unit quantity
	PipSize    decimal.Decimal // PIPS: size of one pip (0.0001 or 0.01 typically)
	PointValue decimal.Decimal // POINTS: value of one point per unit quantity
}

// Calculator computes PnL for a fixed mode. It is stateless and safe to
// share across goroutines.
type Calculator struct {
	mode   types.PnLMode
	params Params
}

// NewCalculator validates the parameters for the given mode.
func NewCalculator(mode types.PnLMode, params Params) (*Calculator, error) {
	switch mode {
	case types.PnLModeFiat:
		// No parameters.
	case types.PnLModeTicks:
		if !params.TickSize.IsPositive() {
			return nil, fmt.Errorf("%w: tick size must be positive, got %s", types.ErrInvalidConfig, params.TickSize)
		}
		if !params.TickValue.IsPositive() {
			return nil, fmt.Errorf("%w: tick value must be positive, got %s", types.ErrInvalidConfig, params.TickValue)
		}
	case types.PnLModePips:
		if !params.PipSize.IsPositive() {
			return nil, fmt.Errorf("%w: pip size must be positive, got %s", types.ErrInvalidConfig, params.PipSize)
		}
	case types.PnLModePoints:
		if !params.PointValue.IsPositive() {
			return nil, fmt.Errorf("%w: point value must be positive, got %s", types.ErrInvalidConfig, params.PointValue)
		}
	default:
		return nil, fmt.Errorf("%w: unknown pnl mode %d", types.ErrInvalidConfig, mode)
	}

	return &Calculator{mode: mode, params: params}, nil
}

// Mode returns the configured PnL mode.
func (c *Calculator) Mode() types.PnLMode {
	return c.mode
}

// PnL converts the move from entry to exit on a position of the given size
// into a PnL amount. side is the direction of the position being valued or
// closed: Buy means a long position, Sell a short one. quantity must be the
// absolute position size.
func (c *Calculator) PnL(entry, exit, quantity decimal.Decimal, side types.Side) decimal.Decimal {
	diff := exit.Sub(entry)
	if side == types.SideSell {
		diff = diff.Neg()
	}

	switch c.mode {
	case types.PnLModeTicks:
		return diff.Div(c.params.TickSize).Mul(c.params.TickValue).Mul(quantity)
	case types.PnLModePips:
		return diff.Div(c.params.PipSize).Mul(quantity)
	case types.PnLModePoints:
		return diff.Mul(c.params.PointValue).Mul(quantity)
	default: // FIAT
		return diff.Mul(quantity)
	}
}

// RequiredMargin returns the margin needed to open a position of the given
// size at the given price. Leverage 1 means fully funded.
func (c *Calculator) RequiredMargin(price, quantity, leverage decimal.Decimal) decimal.Decimal {
	notional := price.Mul(quantity)
	if leverage.IsPositive() {
		return notional.Div(leverage)
	}
	return notional
}
