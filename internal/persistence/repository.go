// Package persistence journals simulation runs: fills, orders and equity
// snapshots, so results survive the process and can be inspected later.
package persistence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// Repository defines the interface for journaling a simulation run.
type Repository interface {
	// Fill operations
	SaveFill(ctx context.Context, runID string, fill types.Fill) error
	GetFills(ctx context.Context, runID string) ([]types.Fill, error)

	// Order operations
	SaveOrder(ctx context.Context, runID string, order types.Order) error
	GetOrders(ctx context.Context, runID string) ([]types.Order, error)

	// Equity operations
	SaveEquityPoint(ctx context.Context, runID string, point EquityPoint) error
	GetEquityCurve(ctx context.Context, runID string) ([]EquityPoint, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// EquityPoint represents persisted equity state after one candle.
type EquityPoint struct {
	Seq      int64
	Balance  decimal.Decimal
	Equity   decimal.Decimal
	Drawdown decimal.Decimal
}
