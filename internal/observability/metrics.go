// Package observability holds the Prometheus metrics for the disaster
// response server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms for the core pipeline:
// classification, ledger appends, and alert dispatch.
type Metrics struct {
	ReportsClassified  *prometheus.CounterVec // label: risk_level
	LedgerAppends      prometheus.Counter
	ChainVerifyRuns    prometheus.Counter
	ChainVerifyFails   prometheus.Counter
	AlertsDispatched   *prometheus.CounterVec // label: kind={geofenced,targeted,broadcast}
	RecipientsPerAlert prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsClassified,
		m.LedgerAppends,
		m.ChainVerifyRuns,
		m.ChainVerifyFails,
		m.AlertsDispatched,
		m.RecipientsPerAlert,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics to avoid "already
// registered" panics when constructed from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_server",
			Name:      "reports_classified_total",
			Help:      "Reports scored by the authenticity classifier, by risk level.",
		}, []string{"risk_level"}),
		LedgerAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_server",
			Name:      "ledger_appends_total",
			Help:      "Blocks appended to the verification ledger.",
		}),
		ChainVerifyRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_server",
			Name:      "chain_verify_runs_total",
			Help:      "On-demand integrity verifications of the ledger chain.",
		}),
		ChainVerifyFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_server",
			Name:      "chain_verify_failures_total",
			Help:      "Chain verifications that detected a hash or linkage mismatch.",
		}),
		AlertsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_server",
			Name:      "alerts_dispatched_total",
			Help:      "Alert dispatches by kind.",
		}, []string{"kind"}),
		RecipientsPerAlert: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_server",
			Name:      "recipients_per_alert",
			Help:      "Recipients selected per alert dispatch.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
	}
}
