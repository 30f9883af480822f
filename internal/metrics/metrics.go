// Package metrics exposes Prometheus instrumentation for simulation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersTotal counts placed orders by type and final status.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradesim_orders_total",
		Help: "Total orders placed, by type and status.",
	}, []string{"type", "status"})

	// FillsTotal counts executed fills by side.
	FillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradesim_fills_total",
		Help: "Total fills executed, by side.",
	}, []string{"side"})

	// CandlesTotal counts processed market updates.
	CandlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradesim_candles_total",
		Help: "Total market candles processed.",
	})

	// BalanceCurrent is the simulator's cash balance.
	BalanceCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_balance",
		Help: "Current cash balance.",
	})

	// EquityCurrent is balance plus net PnL.
	EquityCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_equity",
		Help: "Current equity (balance plus net PnL).",
	})

	// RealizedPnL is the cumulative realized PnL.
	RealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_realized_pnl",
		Help: "Cumulative realized PnL.",
	})

	// UnrealizedPnL is the current mark-to-market PnL.
	UnrealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_unrealized_pnl",
		Help: "Unrealized PnL at the latest close.",
	})

	// PositionQuantity is the signed net position size.
	PositionQuantity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_position_quantity",
		Help: "Signed net position quantity (positive long, negative short).",
	})

	// PendingOrders is the number of resting orders.
	PendingOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_pending_orders",
		Help: "Number of resting orders awaiting a trigger.",
	})
)
