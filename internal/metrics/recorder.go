package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// Recorder provides methods for recording simulation metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordOrder records an order placement outcome.
func (r *Recorder) RecordOrder(orderType types.OrderType, status types.OrderStatus) {
	OrdersTotal.WithLabelValues(orderType.String(), status.String()).Inc()
}

// RecordFill records an executed fill.
func (r *Recorder) RecordFill(fill types.Fill) {
	FillsTotal.WithLabelValues(fill.Side.String()).Inc()
}

// RecordCandle records a processed market update.
func (r *Recorder) RecordCandle() {
	CandlesTotal.Inc()
}

// RecordAccount records balance and equity.
func (r *Recorder) RecordAccount(balance, equity decimal.Decimal) {
	BalanceCurrent.Set(balance.InexactFloat64())
	EquityCurrent.Set(equity.InexactFloat64())
}

// RecordPnL records the realized/unrealized PnL gauges.
func (r *Recorder) RecordPnL(p types.PnL) {
	RealizedPnL.Set(p.Realized.InexactFloat64())
	UnrealizedPnL.Set(p.Unrealized.InexactFloat64())
}

// RecordPosition records the signed position size.
func (r *Recorder) RecordPosition(pos types.Position) {
	PositionQuantity.Set(pos.Quantity.InexactFloat64())
}

// RecordPendingOrders records the resting-order count.
func (r *Recorder) RecordPendingOrders(n int) {
	PendingOrders.Set(float64(n))
}
