package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/allbin/go-k720"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler exposing reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// TransactionMetrics records dispenser exchanges. It implements k720.Observer.
type TransactionMetrics struct {
	Transactions   *prometheus.CounterVec   // labels: command, result
	Duration       *prometheus.HistogramVec // labels: command
	FailedState    *prometheus.CounterVec   // labels: state
	CardsDispensed prometheus.Counter
	CycleFailures  prometheus.Counter
}

var _ k720.Observer = (*TransactionMetrics)(nil)

// NewTransactionMetrics registers and returns the dispenser metrics
func NewTransactionMetrics(reg prometheus.Registerer) *TransactionMetrics {
	m := &TransactionMetrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "k720_transactions_total",
			Help: "Dispenser transactions by command and result.",
		}, []string{"command", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "k720_transaction_duration_seconds",
			Help:    "Time from command write to final state.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"command"}),
		FailedState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "k720_failed_state_total",
			Help: "Failed transactions by the last state reached.",
		}, []string{"state"}),
		CardsDispensed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "k720_cards_dispensed_total",
			Help: "Cards moved to the take position by the operate loop.",
		}),
		CycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "k720_operate_cycle_failures_total",
			Help: "Operate cycles aborted by a failed transaction.",
		}),
	}
	reg.MustRegister(m.Transactions, m.Duration, m.FailedState, m.CardsDispensed, m.CycleFailures)
	return m
}

// ObserveTransaction implements k720.Observer
func (m *TransactionMetrics) ObserveTransaction(r k720.Report) {
	m.Transactions.WithLabelValues(r.Command, Result(r)).Inc()
	m.Duration.WithLabelValues(r.Command).Observe(r.Duration.Seconds())
	if r.State == k720.StateFailed {
		m.FailedState.WithLabelValues(r.Failed.String()).Inc()
	}
}

// Result classifies a report as ok, nak, timeout or error
func Result(r k720.Report) string {
	switch {
	case r.State == k720.StateComplete:
		return "ok"
	case errors.Is(r.Err, k720.ErrNAK):
		return "nak"
	case errors.Is(r.Err, k720.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
