// Package engine implements the order-execution state machine: it accepts
// order placements and market updates, decides which orders fill and at
// what price, and applies the results to the position and trade history.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/fees"
	"github.com/quantsim/tradesim/internal/orderbook"
	"github.com/quantsim/tradesim/internal/pnl"
	"github.com/quantsim/tradesim/internal/position"
	"github.com/quantsim/tradesim/internal/types"
)

// Request describes an order placement. Price is required for non-market
// orders. StopLoss and TakeProfit attach guard orders to the position and
// are honored on market orders only.
type Request struct {
	Type       types.OrderType
	Side       types.Side
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// Engine is the core state machine. It assumes exclusive sequential access:
// PlaceOrder and UpdateMarket must not run concurrently on one instance.
type Engine struct {
	logger *slog.Logger
	calc   *pnl.Calculator
	sched  *fees.Schedule

	clock   priceClock
	book    *orderbook.Book
	tracker *position.Tracker

	history []types.Fill
	filled  []types.Order
	seq     int64
}

// New creates an engine around the given calculator and fee schedule.
func New(calc *pnl.Calculator, sched *fees.Schedule, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:  logger,
		calc:    calc,
		sched:   sched,
		book:    orderbook.New(),
		tracker: position.NewTracker(calc),
	}
}

// PlaceOrder validates and registers an order. Market orders execute
// immediately at the last candle's close; all other types rest in the book
// until a candle's range reaches their price. A rejected order leaves the
// engine state untouched.
func (e *Engine) PlaceOrder(req Request) (types.Order, error) {
	if err := validate(req); err != nil {
		return types.Order{}, err
	}

	if req.Type == types.OrderTypeMarket {
		return e.placeMarket(req)
	}

	e.seq++
	order := &types.Order{
		ID:       uuid.New().String(),
		Seq:      e.seq,
		Type:     req.Type,
		Side:     req.Side,
		Quantity: req.Quantity,
		Price:    req.Price,
		Status:   types.OrderStatusPending,
	}
	e.book.Add(order)

	e.logger.Debug("order resting",
		"order_id", order.ID,
		"type", order.Type.String(),
		"side", order.Side.String(),
		"quantity", order.Quantity,
		"price", order.Price,
	)
	return *order, nil
}

func validate(req Request) error {
	if !req.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", types.ErrInvalidOrder, req.Quantity)
	}
	if req.Type != types.OrderTypeMarket && !req.Price.IsPositive() {
		return fmt.Errorf("%w: %s orders require a price", types.ErrInvalidOrder, req.Type)
	}
	if req.StopLoss.IsNegative() || req.TakeProfit.IsNegative() {
		return fmt.Errorf("%w: guard prices must not be negative", types.ErrInvalidOrder)
	}
	return nil
}

func (e *Engine) placeMarket(req Request) (types.Order, error) {
	price, ok := e.clock.lastClose()
	if !ok {
		return types.Order{}, fmt.Errorf("%w: update market before placing market orders", types.ErrNoMarketData)
	}

	e.seq++
	order := &types.Order{
		ID:         uuid.New().String(),
		Seq:        e.seq,
		Type:       types.OrderTypeMarket,
		Side:       req.Side,
		Quantity:   req.Quantity,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Status:     types.OrderStatusPending,
	}

	e.execute(order, price)
	e.tracker.MarkToMarket(price)
	e.attachGuards(order)

	return *order, nil
}

// attachGuards creates the stop-loss/take-profit orders requested alongside
// a market order. The guards close the position, so they take the opposite
// side, and when both exist they reference each other as OCO siblings.
func (e *Engine) attachGuards(order *types.Order) {
	var stop, target *types.Order

	if order.StopLoss.IsPositive() {
		e.seq++
		stop = &types.Order{
			ID:       uuid.New().String(),
			Seq:      e.seq,
			Type:     types.OrderTypeStopLoss,
			Side:     order.Side.Opposite(),
			Quantity: order.Quantity,
			Price:    order.StopLoss,
			Status:   types.OrderStatusPending,
		}
	}
	if order.TakeProfit.IsPositive() {
		e.seq++
		target = &types.Order{
			ID:       uuid.New().String(),
			Seq:      e.seq,
			Type:     types.OrderTypeTakeProfit,
			Side:     order.Side.Opposite(),
			Quantity: order.Quantity,
			Price:    order.TakeProfit,
			Status:   types.OrderStatusPending,
		}
	}

	if stop != nil && target != nil {
		stop.SiblingID = target.ID
		target.SiblingID = stop.ID
	}
	if stop != nil {
		e.book.Add(stop)
	}
	if target != nil {
		e.book.Add(target)
	}
}

// UpdateMarket replaces the price clock and triggers any resting orders
// whose condition is met by the new candle's range. Orders are evaluated
// in insertion order, and each triggered fill is applied before the next
// order is evaluated. Returns the fills executed during this update.
func (e *Engine) UpdateMarket(candle types.Candle) ([]types.Fill, error) {
	if err := candle.Validate(); err != nil {
		return nil, err
	}

	e.clock.set(candle)
	e.seq++

	var fillsOut []types.Fill
	for _, order := range e.book.Scan() {
		if order.Status != types.OrderStatusPending {
			// Cancelled earlier in this scan by an OCO sibling.
			continue
		}

		price, ok := triggerPrice(order, candle)
		if !ok {
			continue
		}

		e.book.Remove(order.ID)
		fill := e.execute(order, price)
		fillsOut = append(fillsOut, fill)

		if order.SiblingID != "" {
			if sib := e.book.Cancel(order.SiblingID); sib != nil {
				e.logger.Debug("sibling order cancelled",
					"order_id", sib.ID,
					"type", sib.Type.String(),
					"trigger_order_id", order.ID,
				)
			}
		}
	}

	e.tracker.MarkToMarket(candle.Close)
	return fillsOut, nil
}

// triggerPrice reports whether the candle's range reaches the order's
// price and, if so, the execution price. Resting orders always fill at
// their own price, even when the candle gaps through it.
func triggerPrice(order *types.Order, candle types.Candle) (decimal.Decimal, bool) {
	switch order.Type {
	case types.OrderTypeLimit, types.OrderTypeTakeProfit:
		if order.Side == types.SideBuy {
			if candle.Low.LessThanOrEqual(order.Price) {
				return order.Price, true
			}
		} else {
			if candle.High.GreaterThanOrEqual(order.Price) {
				return order.Price, true
			}
		}
	case types.OrderTypeStopLoss:
		if order.Side == types.SideBuy {
			// Guarding a short: buy back when price rises to the stop.
			if candle.High.GreaterThanOrEqual(order.Price) {
				return order.Price, true
			}
		} else {
			// Guarding a long: sell when price drops to the stop.
			if candle.Low.LessThanOrEqual(order.Price) {
				return order.Price, true
			}
		}
	}
	return decimal.Zero, false
}

// execute fills the order at the given price, applies the fill to the
// position and appends it to the trade history.
func (e *Engine) execute(order *types.Order, price decimal.Decimal) types.Fill {
	fee := e.sched.Fee(price, order.Quantity)

	fill := types.Fill{
		ID:       uuid.New().String(),
		OrderID:  order.ID,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    price,
		Fee:      fee,
		Seq:      e.seq,
	}
	e.tracker.Apply(&fill)
	e.history = append(e.history, fill)

	order.Status = types.OrderStatusFilled
	order.FilledPrice = price
	order.FilledSeq = e.seq
	order.Fee = fee
	e.filled = append(e.filled, *order)

	e.logger.Debug("order filled",
		"order_id", order.ID,
		"type", order.Type.String(),
		"side", order.Side.String(),
		"quantity", order.Quantity,
		"price", price,
		"fee", fee,
		"realized_pnl", fill.RealizedPnL,
	)
	return fill
}

// CancelOrder cancels a resting order. Cancelling an unknown or already
// finalized order returns ErrOrderNotFound.
func (e *Engine) CancelOrder(id string) error {
	if e.book.Cancel(id) == nil {
		return fmt.Errorf("%w: %s", types.ErrOrderNotFound, id)
	}
	e.logger.Debug("order cancelled", "order_id", id)
	return nil
}

// PnL returns the current profit-and-loss summary. Unrealized is zero
// whenever the position is flat.
func (e *Engine) PnL() types.PnL {
	pos := e.tracker.Snapshot()
	total := pos.RealizedPnL.Add(pos.UnrealizedPnL)
	return types.PnL{
		Realized:   pos.RealizedPnL,
		Unrealized: pos.UnrealizedPnL,
		Total:      total,
		Fees:       pos.TotalFees,
		Net:        total,
	}
}

// Position returns a snapshot of the current position.
func (e *Engine) Position() types.Position {
	return e.tracker.Snapshot()
}

// TradeHistory returns all fills in execution order.
func (e *Engine) TradeHistory() []types.Fill {
	out := make([]types.Fill, len(e.history))
	copy(out, e.history)
	return out
}

// PendingOrders returns the resting orders in insertion order.
func (e *Engine) PendingOrders() []types.Order {
	return e.book.Pending()
}

// FilledOrders returns all filled orders in execution order.
func (e *Engine) FilledOrders() []types.Order {
	out := make([]types.Order, len(e.filled))
	copy(out, e.filled)
	return out
}

// LastClose returns the close of the most recent candle, and false before
// the first market update.
func (e *Engine) LastClose() (decimal.Decimal, bool) {
	return e.clock.lastClose()
}

// Candle returns the most recent candle, and false before the first update.
func (e *Engine) Candle() (types.Candle, bool) {
	return e.clock.candle, e.clock.seen
}

// Reset returns the engine to its initial empty state.
func (e *Engine) Reset() {
	e.clock.reset()
	e.book.Clear()
	e.tracker.Reset()
	e.history = nil
	e.filled = nil
	e.seq = 0
}
