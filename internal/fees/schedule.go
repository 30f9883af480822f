// Package fees computes transaction fees on fill notionals.
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// Schedule describes how fees are charged per fill. The fee is
// notional*Rate + Fixed, clamped to [Min, Max]. A zero Max means no cap.
type Schedule struct {
	Rate  decimal.Decimal
	Fixed decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
}

// NewSchedule validates the fee parameters.
func NewSchedule(rate, fixed, min, max decimal.Decimal) (*Schedule, error) {
	if rate.IsNegative() {
		return nil, fmt.Errorf("%w: fee rate must not be negative, got %s", types.ErrInvalidConfig, rate)
	}
	if fixed.IsNegative() {
		return nil, fmt.Errorf("%w: fixed fee must not be negative, got %s", types.ErrInvalidConfig, fixed)
	}
	if min.IsNegative() {
		return nil, fmt.Errorf("%w: minimum fee must not be negative, got %s", types.ErrInvalidConfig, min)
	}
	if !max.IsZero() && max.LessThan(min) {
		return nil, fmt.Errorf("%w: maximum fee %s below minimum fee %s", types.ErrInvalidConfig, max, min)
	}
	return &Schedule{Rate: rate, Fixed: fixed, Min: min, Max: max}, nil
}

// Free returns a schedule that charges nothing.
func Free() *Schedule {
	return &Schedule{}
}

// Fee returns the fee for a fill of the given quantity at the given price.
// The result is never negative.
func (s *Schedule) Fee(price, quantity decimal.Decimal) decimal.Decimal {
	notional := price.Mul(quantity)
	fee := notional.Mul(s.Rate).Add(s.Fixed)

	if fee.LessThan(s.Min) {
		fee = s.Min
	}
	if !s.Max.IsZero() && fee.GreaterThan(s.Max) {
		fee = s.Max
	}
	return fee
}
