// Package simulator exposes the public trading-simulation facade: one
// position, one order book, one trade history, driven by candles and order
// placements supplied by the caller.
package simulator

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/engine"
	"github.com/quantsim/tradesim/internal/fees"
	"github.com/quantsim/tradesim/internal/pnl"
	"github.com/quantsim/tradesim/internal/types"
)

// Simulator composes the engine with balance and margin accounting. One
// instance owns its state exclusively; instances share nothing and may run
// on separate goroutines without coordination. A single instance assumes
// sequential access and performs no internal locking.
type Simulator struct {
	cfg    Config
	logger *slog.Logger

	calc    *pnl.Calculator
	eng     *engine.Engine
	balance decimal.Decimal
}

// New validates the configuration and builds a simulator.
func New(cfg Config, logger *slog.Logger) (*Simulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	calc, err := pnl.NewCalculator(cfg.Mode, pnl.Params{
		TickSize:   cfg.TickSize,
		TickValue:  cfg.TickValue,
		PipSize:    cfg.PipSize,
		PointValue: cfg.PointValue,
	})
	if err != nil {
		return nil, err
	}

	sched, err := fees.NewSchedule(cfg.FeeRate, cfg.FixedFee, cfg.MinFee, cfg.MaxFee)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		cfg:     cfg,
		logger:  logger,
		calc:    calc,
		eng:     engine.New(calc, sched, logger),
		balance: cfg.InitialBalance,
	}, nil
}

// PlaceOrder submits an order. Market orders execute at the latest close
// and fail with ErrNoMarketData before the first candle, or with
// ErrInsufficientBalance when the required margin exceeds the balance.
// Limit, stop-loss and take-profit orders rest until triggered.
func (s *Simulator) PlaceOrder(req engine.Request) (types.Order, error) {
	if req.Type == types.OrderTypeMarket {
		if err := s.checkMargin(req.Quantity); err != nil {
			return types.Order{}, err
		}
	}

	order, err := s.eng.PlaceOrder(req)
	if err != nil {
		return types.Order{}, err
	}

	// Entry fees come out of the balance at execution time.
	if order.Status == types.OrderStatusFilled {
		s.balance = s.balance.Sub(order.Fee)
	}
	return order, nil
}

func (s *Simulator) checkMargin(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		// Let engine validation produce the precise error.
		return nil
	}
	price, ok := s.eng.LastClose()
	if !ok {
		return fmt.Errorf("%w: update market before placing market orders", types.ErrNoMarketData)
	}

	required := s.calc.RequiredMargin(price, quantity, s.cfg.Leverage)
	if required.GreaterThan(s.balance) {
		return fmt.Errorf("%w: required margin %s exceeds balance %s",
			types.ErrInsufficientBalance, required, s.balance)
	}
	return nil
}

// UpdateMarket feeds the next candle to the engine, executing any resting
// orders it touches, and returns the resulting fills. Malformed candles
// fail with ErrInvalidMarketData and mutate nothing.
func (s *Simulator) UpdateMarket(candle types.Candle) ([]types.Fill, error) {
	fills, err := s.eng.UpdateMarket(candle)
	if err != nil {
		return nil, err
	}
	for _, f := range fills {
		s.balance = s.balance.Sub(f.Fee)
	}
	return fills, nil
}

// CancelOrder cancels a resting order by id.
func (s *Simulator) CancelOrder(id string) error {
	return s.eng.CancelOrder(id)
}

// GetPnL returns the current profit-and-loss summary.
func (s *Simulator) GetPnL() types.PnL {
	return s.eng.PnL()
}

// GetPosition returns a snapshot of the current position.
func (s *Simulator) GetPosition() types.Position {
	return s.eng.Position()
}

// GetTradeHistory returns all fills in execution order.
func (s *Simulator) GetTradeHistory() []types.Fill {
	return s.eng.TradeHistory()
}

// GetPendingOrders returns the resting orders in insertion order.
func (s *Simulator) GetPendingOrders() []types.Order {
	return s.eng.PendingOrders()
}

// GetFilledOrders returns all filled orders in execution order.
func (s *Simulator) GetFilledOrders() []types.Order {
	return s.eng.FilledOrders()
}

// Balance returns the cash balance: the initial balance less all fees
// charged so far. Realized PnL accrues in the position, not the balance.
func (s *Simulator) Balance() decimal.Decimal {
	return s.balance
}

// Equity returns balance plus realized and unrealized PnL.
func (s *Simulator) Equity() decimal.Decimal {
	p := s.eng.PnL()
	return s.balance.Add(p.Net)
}

// LastClose returns the close of the most recent candle, and false before
// the first market update.
func (s *Simulator) LastClose() (decimal.Decimal, bool) {
	return s.eng.LastClose()
}

// State is a flat snapshot of the simulator, convenient as an observation
// for reinforcement-learning loops.
type State struct {
	Balance       decimal.Decimal
	Equity        decimal.Decimal
	Position      types.Position
	PnL           types.PnL
	LastClose     decimal.Decimal
	HasMarketData bool
	PendingOrders int
}

// GetState returns the full simulator state.
func (s *Simulator) GetState() State {
	last, ok := s.eng.LastClose()
	return State{
		Balance:       s.balance,
		Equity:        s.Equity(),
		Position:      s.eng.Position(),
		PnL:           s.eng.PnL(),
		LastClose:     last,
		HasMarketData: ok,
		PendingOrders: len(s.eng.PendingOrders()),
	}
}

// Reset returns the simulator to its initial state: flat position, empty
// book and history, initial balance, no market data.
func (s *Simulator) Reset() {
	s.eng.Reset()
	s.balance = s.cfg.InitialBalance
}
