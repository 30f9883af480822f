package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// Result holds the performance report of one backtest. A "trade" here is a
// fill that realized PnL, i.e. reduced, closed or flipped the position.
type Result struct {
	StartEquity decimal.Decimal
	EndEquity   decimal.Decimal
	TotalReturn decimal.Decimal // as ratio (0.15 = 15%)
	MaxDrawdown decimal.Decimal // as ratio

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       decimal.Decimal // as ratio
	ProfitFactor  decimal.Decimal // gross profit / gross loss
	GrossProfit   decimal.Decimal
	GrossLoss     decimal.Decimal
	TotalFees     decimal.Decimal

	Fills       []types.Fill
	EquityCurve []EquityPoint
}

// compute derives the summary statistics from fills and the equity curve.
func (r *Result) compute() {
	if r.StartEquity.IsPositive() {
		r.TotalReturn = r.EndEquity.Sub(r.StartEquity).Div(r.StartEquity)
	}
	r.MaxDrawdown = maxDrawdown(r.EquityCurve)

	for _, f := range r.Fills {
		r.TotalFees = r.TotalFees.Add(f.Fee)
		if f.RealizedPnL.IsZero() {
			continue
		}
		r.TotalTrades++
		if f.RealizedPnL.IsPositive() {
			r.WinningTrades++
			r.GrossProfit = r.GrossProfit.Add(f.RealizedPnL)
		} else {
			r.LosingTrades++
			r.GrossLoss = r.GrossLoss.Add(f.RealizedPnL.Abs())
		}
	}

	if r.TotalTrades > 0 {
		r.WinRate = decimal.NewFromInt(int64(r.WinningTrades)).
			Div(decimal.NewFromInt(int64(r.TotalTrades)))
	}
	if r.GrossLoss.IsPositive() {
		r.ProfitFactor = r.GrossProfit.Div(r.GrossLoss)
	}
}

// maxDrawdown returns the largest peak-to-trough equity drop as a ratio.
func maxDrawdown(curve []EquityPoint) decimal.Decimal {
	if len(curve) == 0 {
		return decimal.Zero
	}

	hwm := curve[0].Equity
	maxDD := decimal.Zero

	for _, point := range curve {
		if point.Equity.GreaterThan(hwm) {
			hwm = point.Equity
		}
		if hwm.IsPositive() {
			dd := hwm.Sub(point.Equity).Div(hwm)
			if dd.GreaterThan(maxDD) {
				maxDD = dd
			}
		}
	}

	return maxDD
}
