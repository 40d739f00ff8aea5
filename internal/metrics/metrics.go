// Package metrics holds the Prometheus collectors updated by the engine:
//
//   - tradesim_orders_total{side,state,reason}   orders processed
//   - tradesim_predictions_total{basis}          estimates by model/heuristic path
//   - tradesim_quote_fallbacks_total{source}     quotes replaced by the synthetic generator
//   - tradesim_history_fallbacks_total{source}   history requests that resolved empty
//   - tradesim_cash_balance                      ledger cash after the last order
//
// Collectors are registered with the default registry in init and served by
// Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesim_orders_total",
			Help: "Orders processed by the executor",
		},
		[]string{"side", "state", "reason"},
	)

	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesim_predictions_total",
			Help: "Price estimates produced, by basis",
		},
		[]string{"basis"},
	)

	QuoteFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesim_quote_fallbacks_total",
			Help: "Quotes that fell back to the synthetic generator",
		},
		[]string{"source"},
	)

	HistoryFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesim_history_fallbacks_total",
			Help: "History requests that failed and resolved to an empty series",
		},
		[]string{"source"},
	)

	CashBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradesim_cash_balance",
			Help: "Ledger cash balance after the last processed order",
		},
	)
)

func init() {
	prometheus.MustRegister(Orders, Predictions, QuoteFallbacks, HistoryFallbacks, CashBalance)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
