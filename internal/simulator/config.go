package simulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// Config holds the construction-time parameters of a simulator. The PnL
// mode and its parameters are fixed for the simulator's lifetime.
type Config struct {
	InitialBalance decimal.Decimal
	Mode           types.PnLMode

	// Fee schedule: per-fill fee is notional*FeeRate + FixedFee, clamped
	// to [MinFee, MaxFee]. Zero MaxFee means uncapped.
	FeeRate  decimal.Decimal
	FixedFee decimal.Decimal
	MinFee   decimal.Decimal
	MaxFee   decimal.Decimal

	// Mode parameters; only the ones for the selected mode are required.
	TickSize   decimal.Decimal
	TickValue  decimal.Decimal
	PipSize    decimal.Decimal
	PointValue decimal.Decimal

	// Leverage for the margin check on market orders. 1 = fully funded.
	Leverage decimal.Decimal
}

// DefaultConfig returns a fee-free FIAT simulator with a 10000 balance and
// no leverage.
func DefaultConfig() Config {
	return Config{
		InitialBalance: decimal.NewFromInt(10000),
		Mode:           types.PnLModeFiat,
		Leverage:       decimal.NewFromInt(1),
	}
}

func (c Config) validate() error {
	if c.InitialBalance.IsNegative() {
		return fmt.Errorf("%w: initial balance must not be negative, got %s",
			types.ErrInvalidConfig, c.InitialBalance)
	}
	if !c.Leverage.IsPositive() {
		return fmt.Errorf("%w: leverage must be positive, got %s",
			types.ErrInvalidConfig, c.Leverage)
	}
	return nil
}
