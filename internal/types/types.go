// Package types defines the shared value types used across the simulator.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order or fill.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType represents the kind of order.
type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStopLoss
	OrderTypeTakeProfit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeStopLoss:
		return "STOP_LOSS"
	case OrderTypeTakeProfit:
		return "TAKE_PROFIT"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus represents the state of an order.
type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// IsFinal returns true if the order is in a terminal state.
func (s OrderStatus) IsFinal() bool {
	return s != OrderStatusPending
}

// PnLMode selects the convention used to convert price deltas into PnL.
type PnLMode int

const (
	PnLModeFiat PnLMode = iota
	PnLModeTicks
	PnLModePips
	PnLModePoints
)

func (m PnLMode) String() string {
	switch m {
	case PnLModeFiat:
		return "FIAT"
	case PnLModeTicks:
		return "TICKS"
	case PnLModePips:
		return "PIPS"
	case PnLModePoints:
		return "POINTS"
	default:
		return "UNKNOWN"
	}
}

// ParsePnLMode parses a mode name as found in configuration files.
func ParsePnLMode(s string) (PnLMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIAT":
		return PnLModeFiat, nil
	case "TICKS":
		return PnLModeTicks, nil
	case "PIPS":
		return PnLModePips, nil
	case "POINTS":
		return PnLModePoints, nil
	default:
		return PnLModeFiat, fmt.Errorf("%w: unknown pnl mode %q", ErrInvalidConfig, s)
	}
}

// Candle is one OHLCV bar of market data.
type Candle struct {
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Validate checks the candle invariants: all values non-negative and
// low <= {open, close} <= high.
func (c Candle) Validate() error {
	if c.Open.IsNegative() || c.High.IsNegative() || c.Low.IsNegative() ||
		c.Close.IsNegative() || c.Volume.IsNegative() {
		return fmt.Errorf("%w: negative value in candle", ErrInvalidMarketData)
	}
	if c.Low.GreaterThan(c.High) {
		return fmt.Errorf("%w: low %s above high %s", ErrInvalidMarketData, c.Low, c.High)
	}
	if c.Open.LessThan(c.Low) || c.Open.GreaterThan(c.High) {
		return fmt.Errorf("%w: open %s outside [%s, %s]", ErrInvalidMarketData, c.Open, c.Low, c.High)
	}
	if c.Close.LessThan(c.Low) || c.Close.GreaterThan(c.High) {
		return fmt.Errorf("%w: close %s outside [%s, %s]", ErrInvalidMarketData, c.Close, c.Low, c.High)
	}
	return nil
}

// Order represents a trading order. Seq is a logical sequence number
// assigned at placement; the core carries no wall-clock time.
type Order struct {
	ID       string
	Seq      int64
	Type     OrderType
	Side     Side
	Quantity decimal.Decimal
	Price    decimal.Decimal // limit/stop/target price; unused for market orders

	// Requested guard levels, only meaningful on market orders.
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal

	// SiblingID links a stop-loss/take-profit pair: when one fills,
	// the other is cancelled. Empty when the order has no sibling.
	SiblingID string

	Status      OrderStatus
	FilledPrice decimal.Decimal
	FilledSeq   int64
	Fee         decimal.Decimal
}

// Fill is the immutable record of an order's execution.
type Fill struct {
	ID          string
	OrderID     string
	Side        Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Fee         decimal.Decimal
	RealizedPnL decimal.Decimal // realized delta net of the closing fee; zero on opening fills
	Seq         int64
}

// Position is a snapshot of the current position. Quantity is signed:
// positive = long, negative = short, zero = flat. AveragePrice is zero
// whenever the position is flat.
type Position struct {
	Quantity      decimal.Decimal
	AveragePrice  decimal.Decimal
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	TotalFees     decimal.Decimal
}

// IsLong reports whether the position is long.
func (p Position) IsLong() bool { return p.Quantity.IsPositive() }

// IsShort reports whether the position is short.
func (p Position) IsShort() bool { return p.Quantity.IsNegative() }

// IsFlat reports whether there is no open position.
func (p Position) IsFlat() bool { return p.Quantity.IsZero() }

// Side returns the direction of the open position and false when flat.
func (p Position) Side() (Side, bool) {
	switch {
	case p.IsLong():
		return SideBuy, true
	case p.IsShort():
		return SideSell, true
	default:
		return SideBuy, false
	}
}

// PnL is a summary of profit and loss. Realized already has closing-leg
// fees deducted; TotalFees counts both legs.
type PnL struct {
	Realized   decimal.Decimal
	Unrealized decimal.Decimal
	Total      decimal.Decimal
	Fees       decimal.Decimal
	Net        decimal.Decimal
}
