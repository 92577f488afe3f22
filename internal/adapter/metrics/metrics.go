package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the board engine and stock ledger.
var (
	OrdersPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of orders placed through the board",
		},
	)

	StatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_transitions_total",
			Help: "Total number of committed status transitions",
		},
		[]string{"from", "to"},
	)

	MutationRollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mutation_rollbacks_total",
			Help: "Total number of board snapshot rollbacks after remote persistence failures",
		},
	)

	PushEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_events_total",
			Help: "Total number of push change-feed events received",
		},
		[]string{"type"},
	)

	PushEventsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "push_events_rejected_total",
			Help: "Total number of push events rejected because the order was in flight",
		},
	)

	RevertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reverts_total",
			Help: "Total number of activity entries reverted",
		},
	)

	StockAdjustRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_adjust_retries_total",
			Help: "Total number of stock adjustment retry attempts",
		},
	)

	StockAdjustFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_adjust_failures_total",
			Help: "Total number of stock adjustments that exhausted all retries",
		},
	)

	BoardLiveOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "board_live_orders",
			Help: "Current number of orders in the live partition",
		},
	)

	BoardTerminalOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "board_terminal_orders",
			Help: "Current number of orders in the terminal partition",
		},
	)
)

// Register registers all board metrics with the default registry. Call once
// at startup.
func Register() {
	prometheus.MustRegister(OrdersPlacedTotal)
	prometheus.MustRegister(StatusTransitionsTotal)
	prometheus.MustRegister(MutationRollbacksTotal)
	prometheus.MustRegister(PushEventsTotal)
	prometheus.MustRegister(PushEventsRejectedTotal)
	prometheus.MustRegister(RevertsTotal)
	prometheus.MustRegister(StockAdjustRetriesTotal)
	prometheus.MustRegister(StockAdjustFailuresTotal)
	prometheus.MustRegister(BoardLiveOrders)
	prometheus.MustRegister(BoardTerminalOrders)
}
