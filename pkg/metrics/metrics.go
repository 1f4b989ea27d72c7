package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrdersPlaced counts orders accepted by the marketplace, by order type.
var OrdersPlaced = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "estatex_orders_placed_total",
		Help: "Total number of orders accepted by the marketplace",
	},
	[]string{"type"},
)

// OrdersExecuted counts successfully settled orders.
var OrdersExecuted = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "estatex_orders_executed_total",
		Help: "Total number of orders settled by the execution engine",
	},
)

// TradeVolume accumulates tokens moved by settled trades.
var TradeVolume = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "estatex_trade_volume_tokens_total",
		Help: "Total token volume moved by settled trades",
	},
)

// Investments counts direct property investments.
var Investments = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "estatex_investments_total",
		Help: "Total number of confirmed direct investments",
	},
)

// SettlementLatency records latency distribution for order settlement.
var SettlementLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "estatex_order_settlement_latency_seconds",
		Help:    "Latency in seconds to settle individual orders",
		Buckets: prometheus.DefBuckets,
	},
)

func init() {
	prometheus.MustRegister(OrdersPlaced, OrdersExecuted, TradeVolume, Investments, SettlementLatency)
}
