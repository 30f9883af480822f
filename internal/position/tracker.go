// Package position tracks the single net position and its realized PnL.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/pnl"
	"github.com/quantsim/tradesim/internal/types"
)

// Tracker holds the mutable position state. It is mutated exclusively by
// applying fills; callers read immutable snapshots.
type Tracker struct {
	calc *pnl.Calculator

	quantity     decimal.Decimal // signed: positive long, negative short
	averagePrice decimal.Decimal // zero while flat
	realized     decimal.Decimal
	unrealized   decimal.Decimal
	totalFees    decimal.Decimal
}

// NewTracker creates a flat tracker using the given PnL calculator.
func NewTracker(calc *pnl.Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// Apply mutates the position with one fill and stamps the fill's
// RealizedPnL with the realized delta it produced. Opening and adding
// fills realize nothing; reducing, closing and flipping fills realize
// PnL net of the closing share of the fill's fee.
func (t *Tracker) Apply(f *types.Fill) {
	t.totalFees = t.totalFees.Add(f.Fee)

	if f.Side == types.SideBuy {
		t.applyBuy(f)
	} else {
		t.applySell(f)
	}
}

func (t *Tracker) applyBuy(f *types.Fill) {
	switch {
	case t.quantity.IsZero():
		t.quantity = f.Quantity
		t.averagePrice = f.Price
		f.RealizedPnL = decimal.Zero

	case t.quantity.IsPositive():
		// Adding to a long: volume-weighted average entry.
		cost := t.averagePrice.Mul(t.quantity).Add(f.Price.Mul(f.Quantity))
		t.quantity = t.quantity.Add(f.Quantity)
		t.averagePrice = cost.Div(t.quantity)
		f.RealizedPnL = decimal.Zero

	default:
		t.reduceOrFlip(f, types.SideSell)
	}
}

func (t *Tracker) applySell(f *types.Fill) {
	switch {
	case t.quantity.IsZero():
		t.quantity = f.Quantity.Neg()
		t.averagePrice = f.Price
		f.RealizedPnL = decimal.Zero

	case t.quantity.IsNegative():
		// Adding to a short.
		absQty := t.quantity.Abs()
		cost := t.averagePrice.Mul(absQty).Add(f.Price.Mul(f.Quantity))
		t.quantity = t.quantity.Sub(f.Quantity)
		t.averagePrice = cost.Div(t.quantity.Abs())
		f.RealizedPnL = decimal.Zero

	default:
		t.reduceOrFlip(f, types.SideBuy)
	}
}

// reduceOrFlip handles a fill against an opposite-direction position.
// closingSide is the direction of the position being closed.
func (t *Tracker) reduceOrFlip(f *types.Fill, closingSide types.Side) {
	held := t.quantity.Abs()

	if held.GreaterThanOrEqual(f.Quantity) {
		// Reducing, possibly to exactly zero. The full fill fee counts
		// against the realized delta.
		realized := t.calc.PnL(t.averagePrice, f.Price, f.Quantity, closingSide).Sub(f.Fee)
		t.realized = t.realized.Add(realized)
		f.RealizedPnL = realized

		if closingSide == types.SideBuy {
			t.quantity = t.quantity.Sub(f.Quantity)
		} else {
			t.quantity = t.quantity.Add(f.Quantity)
		}
		if t.quantity.IsZero() {
			t.averagePrice = decimal.Zero
		}
		return
	}

	// Flipping: close the whole held quantity, open the remainder in the
	// opposite direction at the fill price. Only the closing share of the
	// fee reduces realized PnL.
	closingFee := f.Fee.Mul(held).Div(f.Quantity)
	realized := t.calc.PnL(t.averagePrice, f.Price, held, closingSide).Sub(closingFee)
	t.realized = t.realized.Add(realized)
	f.RealizedPnL = realized

	remainder := f.Quantity.Sub(held)
	if closingSide == types.SideBuy {
		// Long closed by a sell: remainder opens a short.
		t.quantity = remainder.Neg()
	} else {
		t.quantity = remainder
	}
	t.averagePrice = f.Price
}

// MarkToMarket recomputes unrealized PnL against the given price.
func (t *Tracker) MarkToMarket(price decimal.Decimal) {
	if t.quantity.IsZero() {
		t.unrealized = decimal.Zero
		return
	}

	side := types.SideBuy
	if t.quantity.IsNegative() {
		side = types.SideSell
	}
	t.unrealized = t.calc.PnL(t.averagePrice, price, t.quantity.Abs(), side)
}

// Snapshot returns a copy of the current position state.
func (t *Tracker) Snapshot() types.Position {
	return types.Position{
		Quantity:      t.quantity,
		AveragePrice:  t.averagePrice,
		RealizedPnL:   t.realized,
		UnrealizedPnL: t.unrealized,
		TotalFees:     t.totalFees,
	}
}

// Reset returns the tracker to a flat state with zero accumulated PnL.
func (t *Tracker) Reset() {
	t.quantity = decimal.Zero
	t.averagePrice = decimal.Zero
	t.realized = decimal.Zero
	t.unrealized = decimal.Zero
	t.totalFees = decimal.Zero
}
