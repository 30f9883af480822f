package types

import "errors"

// Sentinel errors for the simulator. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so callers can match with errors.Is.
var (
	// ErrInvalidOrder is returned for non-positive quantities or a missing
	// price on a non-market order. The engine state is unchanged.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrNoMarketData is returned when a market order is placed before any
	// candle has been received.
	ErrNoMarketData = errors.New("no market data available")

	// ErrInvalidMarketData is returned for candles that violate the OHLC
	// invariants. Nothing is mutated.
	ErrInvalidMarketData = errors.New("invalid market data")

	// ErrInvalidConfig is returned for invalid construction parameters:
	// non-positive tick/pip sizes, negative fee rates, and the like.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInsufficientBalance is returned when the margin required for a
	// market order exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOrderNotFound is returned when cancelling an unknown or already
	// finalized order.
	ErrOrderNotFound = errors.New("order not found")
)
