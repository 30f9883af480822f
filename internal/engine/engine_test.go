package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/fees"
	"github.com/quantsim/tradesim/internal/pnl"
	"github.com/quantsim/tradesim/internal/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func candle(open, high, low, close string) types.Candle {
	return types.Candle{
		Open:   d(open),
		High:   d(high),
		Low:    d(low),
		Close:  d(close),
		Volume: d("1000"),
	}
}

func fiatEngine(t *testing.T) *Engine {
	t.Helper()
	calc, err := pnl.NewCalculator(types.PnLModeFiat, pnl.Params{})
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return New(calc, fees.Free(), nil)
}

func mustUpdate(t *testing.T, e *Engine, c types.Candle) []types.Fill {
	t.Helper()
	fills, err := e.UpdateMarket(c)
	if err != nil {
		t.Fatalf("UpdateMarket: %v", err)
	}
	return fills
}

func TestEngine_MarketOrderWithoutData(t *testing.T) {
	e := fiatEngine(t)

	_, err := e.PlaceOrder(Request{
		Type:     types.OrderTypeMarket,
		Side:     types.SideBuy,
		Quantity: d("1"),
	})
	if !errors.Is(err, types.ErrNoMarketData) {
		t.Errorf("PlaceOrder error = %v, want ErrNoMarketData", err)
	}
	if len(e.TradeHistory()) != 0 {
		t.Error("rejected order must not produce fills")
	}
}

func TestEngine_MarketOrderFillsAtClose(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100.5"))

	order, err := e.PlaceOrder(Request{
		Type:     types.OrderTypeMarket,
		Side:     types.SideBuy,
		Quantity: d("1"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.Status != types.OrderStatusFilled {
		t.Errorf("status = %s, want FILLED", order.Status)
	}
	if !order.FilledPrice.Equal(d("100.5")) {
		t.Errorf("FilledPrice = %s, want 100.5", order.FilledPrice)
	}

	pos := e.Position()
	if !pos.Quantity.Equal(d("1")) || !pos.AveragePrice.Equal(d("100.5")) {
		t.Errorf("position = %s @ %s, want 1 @ 100.5", pos.Quantity, pos.AveragePrice)
	}
	if len(e.TradeHistory()) != 1 {
		t.Errorf("history length = %d, want 1", len(e.TradeHistory()))
	}
}

func TestEngine_Validation(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	tests := []struct {
		name string
		req  Request
	}{
		{"zero quantity", Request{Type: types.OrderTypeMarket, Side: types.SideBuy, Quantity: d("0")}},
		{"negative quantity", Request{Type: types.OrderTypeMarket, Side: types.SideBuy, Quantity: d("-1")}},
		{"limit without price", Request{Type: types.OrderTypeLimit, Side: types.SideBuy, Quantity: d("1")}},
		{"stop without price", Request{Type: types.OrderTypeStopLoss, Side: types.SideSell, Quantity: d("1")}},
		{"take profit without price", Request{Type: types.OrderTypeTakeProfit, Side: types.SideSell, Quantity: d("1")}},
		{"negative stop loss", Request{Type: types.OrderTypeMarket, Side: types.SideBuy, Quantity: d("1"), StopLoss: d("-5")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.PlaceOrder(tt.req); !errors.Is(err, types.ErrInvalidOrder) {
				t.Errorf("PlaceOrder error = %v, want ErrInvalidOrder", err)
			}
		})
	}

	if len(e.TradeHistory()) != 0 || len(e.PendingOrders()) != 0 {
		t.Error("rejected orders must leave the engine unchanged")
	}
}

func TestEngine_LimitBuyRestsThenFillsAtLimit(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	order, err := e.PlaceOrder(Request{
		Type:     types.OrderTypeLimit,
		Side:     types.SideBuy,
		Quantity: d("1"),
		Price:    d("98"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != types.OrderStatusPending {
		t.Errorf("status = %s, want PENDING", order.Status)
	}

	// Range [99, 101] does not reach 98.
	if fills := mustUpdate(t, e, candle("100", "101", "99", "100")); len(fills) != 0 {
		t.Fatalf("order filled early: %v", fills)
	}

	// Low 97 crosses the limit; fills at the limit price, not the low.
	fills := mustUpdate(t, e, candle("99", "99.5", "97", "98.5"))
	if len(fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(fills))
	}
	if !fills[0].Price.Equal(d("98")) {
		t.Errorf("fill price = %s, want 98", fills[0].Price)
	}

	pos := e.Position()
	if !pos.Quantity.Equal(d("1")) || !pos.AveragePrice.Equal(d("98")) {
		t.Errorf("position = %s @ %s, want 1 @ 98", pos.Quantity, pos.AveragePrice)
	}
	if len(e.PendingOrders()) != 0 {
		t.Error("filled order still pending")
	}
}

func TestEngine_LimitSellTriggersOnHigh(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	if _, err := e.PlaceOrder(Request{
		Type:     types.OrderTypeLimit,
		Side:     types.SideSell,
		Quantity: d("1"),
		Price:    d("103"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	fills := mustUpdate(t, e, candle("100", "104", "100", "103.5"))
	if len(fills) != 1 || !fills[0].Price.Equal(d("103")) {
		t.Fatalf("fills = %v, want one fill at 103", fills)
	}
	if !e.Position().Quantity.Equal(d("-1")) {
		t.Errorf("Quantity = %s, want -1", e.Position().Quantity)
	}
}

// A gap candle entirely beyond the limit still fills at the limit price.
func TestEngine_LimitFillsAtLimitOnGap(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	if _, err := e.PlaceOrder(Request{
		Type:     types.OrderTypeLimit,
		Side:     types.SideBuy,
		Quantity: d("1"),
		Price:    d("98"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	fills := mustUpdate(t, e, candle("95", "96", "94", "95"))
	if len(fills) != 1 || !fills[0].Price.Equal(d("98")) {
		t.Fatalf("fills = %v, want one fill at the resting price 98", fills)
	}
}

func TestEngine_StopLossCancelsTakeProfitSibling(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	if _, err := e.PlaceOrder(Request{
		Type:       types.OrderTypeMarket,
		Side:       types.SideBuy,
		Quantity:   d("1"),
		StopLoss:   d("95"),
		TakeProfit: d("110"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	pending := e.PendingOrders()
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want stop and target", len(pending))
	}
	if pending[0].Type != types.OrderTypeStopLoss || pending[1].Type != types.OrderTypeTakeProfit {
		t.Fatalf("pending types = %s, %s", pending[0].Type, pending[1].Type)
	}
	if pending[0].SiblingID != pending[1].ID || pending[1].SiblingID != pending[0].ID {
		t.Error("guards must reference each other as siblings")
	}
	if pending[0].Side != types.SideSell || pending[1].Side != types.SideSell {
		t.Error("guards of a long must be sell orders")
	}

	fills := mustUpdate(t, e, candle("96", "97", "94", "95"))
	if len(fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(fills))
	}
	if !fills[0].Price.Equal(d("95")) {
		t.Errorf("stop fill price = %s, want 95", fills[0].Price)
	}
	if !fills[0].RealizedPnL.Equal(d("-5")) {
		t.Errorf("realized = %s, want -5", fills[0].RealizedPnL)
	}

	if !e.Position().IsFlat() {
		t.Errorf("Quantity = %s, want flat", e.Position().Quantity)
	}
	if len(e.PendingOrders()) != 0 {
		t.Error("take profit should be cancelled when the stop fires")
	}
}

func TestEngine_TakeProfitCancelsStopSibling(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	if _, err := e.PlaceOrder(Request{
		Type:       types.OrderTypeMarket,
		Side:       types.SideSell,
		Quantity:   d("2"),
		StopLoss:   d("105"),
		TakeProfit: d("90"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	// Short guards are buy orders: stop above, target below.
	fills := mustUpdate(t, e, candle("92", "93", "89", "90.5"))
	if len(fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(fills))
	}
	if fills[0].Side != types.SideBuy || !fills[0].Price.Equal(d("90")) {
		t.Errorf("fill = %s at %s, want BUY at 90", fills[0].Side, fills[0].Price)
	}
	if !fills[0].RealizedPnL.Equal(d("20")) {
		t.Errorf("realized = %s, want 20", fills[0].RealizedPnL)
	}
	if !e.Position().IsFlat() || len(e.PendingOrders()) != 0 {
		t.Error("position should be flat with an empty book")
	}
}

// Orders triggered by the same candle execute in insertion order, each
// seeing the position state left by the previous one.
func TestEngine_MultipleTriggersInsertionOrder(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	first, err := e.PlaceOrder(Request{
		Type: types.OrderTypeLimit, Side: types.SideBuy, Quantity: d("1"), Price: d("98"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	second, err := e.PlaceOrder(Request{
		Type: types.OrderTypeLimit, Side: types.SideBuy, Quantity: d("1"), Price: d("97"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	fills := mustUpdate(t, e, candle("99", "99", "96", "96.5"))
	if len(fills) != 2 {
		t.Fatalf("got %d fills, want 2", len(fills))
	}
	if fills[0].OrderID != first.ID || fills[1].OrderID != second.ID {
		t.Error("fills out of insertion order")
	}

	pos := e.Position()
	if !pos.Quantity.Equal(d("2")) {
		t.Errorf("Quantity = %s, want 2", pos.Quantity)
	}
	if !pos.AveragePrice.Equal(d("97.5")) {
		t.Errorf("AveragePrice = %s, want 97.5", pos.AveragePrice)
	}
}

func TestEngine_InvalidCandleMutatesNothing(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	if _, err := e.PlaceOrder(Request{
		Type: types.OrderTypeLimit, Side: types.SideBuy, Quantity: d("1"), Price: d("98"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	bad := types.Candle{Open: d("90"), High: d("89"), Low: d("97"), Close: d("90")}
	if _, err := e.UpdateMarket(bad); !errors.Is(err, types.ErrInvalidMarketData) {
		t.Fatalf("UpdateMarket error = %v, want ErrInvalidMarketData", err)
	}

	if last, _ := e.LastClose(); !last.Equal(d("100")) {
		t.Errorf("LastClose = %s, want unchanged 100", last)
	}
	if len(e.PendingOrders()) != 1 {
		t.Error("pending orders changed by rejected candle")
	}
	if len(e.TradeHistory()) != 0 {
		t.Error("fills produced by rejected candle")
	}
}

func TestEngine_PnLAndUnrealized(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100.5"))

	if _, err := e.PlaceOrder(Request{
		Type: types.OrderTypeMarket, Side: types.SideBuy, Quantity: d("1"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	mustUpdate(t, e, candle("100.5", "102", "100", "101.5"))
	p := e.PnL()
	if !p.Unrealized.Equal(d("1")) {
		t.Errorf("Unrealized = %s, want 1", p.Unrealized)
	}
	if !p.Realized.IsZero() {
		t.Errorf("Realized = %s, want 0", p.Realized)
	}

	if _, err := e.PlaceOrder(Request{
		Type: types.OrderTypeMarket, Side: types.SideSell, Quantity: d("1"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	p = e.PnL()
	if !p.Realized.Equal(d("1")) {
		t.Errorf("Realized = %s, want 1", p.Realized)
	}
	if !p.Unrealized.IsZero() {
		t.Errorf("Unrealized = %s, want 0 when flat", p.Unrealized)
	}
	if !p.Total.Equal(d("1")) || !p.Net.Equal(d("1")) {
		t.Errorf("Total/Net = %s/%s, want 1/1", p.Total, p.Net)
	}
}

// Reads are idempotent: repeated calls without mutation return identical
// results.
func TestEngine_ReadIdempotence(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))
	if _, err := e.PlaceOrder(Request{
		Type: types.OrderTypeMarket, Side: types.SideBuy, Quantity: d("2"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	pos1, pos2 := e.Position(), e.Position()
	if !pos1.Quantity.Equal(pos2.Quantity) || !pos1.AveragePrice.Equal(pos2.AveragePrice) {
		t.Error("Position() not idempotent")
	}

	h1, h2 := e.TradeHistory(), e.TradeHistory()
	if len(h1) != len(h2) || h1[0].ID != h2[0].ID {
		t.Error("TradeHistory() not idempotent")
	}

	// Mutating a returned snapshot must not affect engine state.
	h1[0].Quantity = d("999")
	if e.TradeHistory()[0].Quantity.Equal(d("999")) {
		t.Error("TradeHistory() leaks internal state")
	}
}

func TestEngine_CancelOrder(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	order, err := e.PlaceOrder(Request{
		Type: types.OrderTypeLimit, Side: types.SideBuy, Quantity: d("1"), Price: d("90"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if err := e.CancelOrder(order.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if len(e.PendingOrders()) != 0 {
		t.Error("cancelled order still pending")
	}
	if err := e.CancelOrder(order.ID); !errors.Is(err, types.ErrOrderNotFound) {
		t.Errorf("second cancel error = %v, want ErrOrderNotFound", err)
	}
	if err := e.CancelOrder("nope"); !errors.Is(err, types.ErrOrderNotFound) {
		t.Errorf("cancel unknown error = %v, want ErrOrderNotFound", err)
	}
}

func TestEngine_FeesAppliedPerLeg(t *testing.T) {
	calc, err := pnl.NewCalculator(types.PnLModeFiat, pnl.Params{})
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	sched, err := fees.NewSchedule(d("0.01"), decimal.Zero, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	e := New(calc, sched, nil)
	mustUpdate(t, e, candle("100", "101", "99", "100"))

	buy, err := e.PlaceOrder(Request{Type: types.OrderTypeMarket, Side: types.SideBuy, Quantity: d("1")})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !buy.Fee.Equal(d("1")) {
		t.Errorf("entry fee = %s, want 1", buy.Fee)
	}

	mustUpdate(t, e, candle("100", "111", "100", "110"))
	sell, err := e.PlaceOrder(Request{Type: types.OrderTypeMarket, Side: types.SideSell, Quantity: d("1")})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !sell.Fee.Equal(d("1.1")) {
		t.Errorf("exit fee = %s, want 1.1", sell.Fee)
	}

	p := e.PnL()
	// Realized: (110-100) - 1.1 exit fee. Entry fee only in Fees.
	if !p.Realized.Equal(d("8.9")) {
		t.Errorf("Realized = %s, want 8.9", p.Realized)
	}
	if !p.Fees.Equal(d("2.1")) {
		t.Errorf("Fees = %s, want 2.1", p.Fees)
	}
}

func TestEngine_Reset(t *testing.T) {
	e := fiatEngine(t)
	mustUpdate(t, e, candle("100", "101", "99", "100"))
	if _, err := e.PlaceOrder(Request{
		Type: types.OrderTypeMarket, Side: types.SideBuy, Quantity: d("1"),
		StopLoss: d("95"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	e.Reset()

	if !e.Position().IsFlat() {
		t.Error("position survives reset")
	}
	if len(e.PendingOrders()) != 0 || len(e.TradeHistory()) != 0 || len(e.FilledOrders()) != 0 {
		t.Error("orders or history survive reset")
	}
	if _, ok := e.LastClose(); ok {
		t.Error("market data survives reset")
	}
}
