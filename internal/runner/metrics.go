package runner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for backtest runs.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	RunDuration   prometheus.Histogram
	TradesClosed  prometheus.Counter
}

// NewMetrics creates and registers the run collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quantbt",
			Name:      "runs_started_total",
			Help:      "Number of backtest runs started.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quantbt",
			Name:      "runs_completed_total",
			Help:      "Number of backtest runs completed successfully.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quantbt",
			Name:      "runs_failed_total",
			Help:      "Number of backtest runs that returned an error.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quantbt",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a single backtest run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		TradesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quantbt",
			Name:      "trades_closed_total",
			Help:      "Number of trades closed across all runs.",
		}),
	}

	reg.MustRegister(m.RunsStarted, m.RunsCompleted, m.RunsFailed, m.RunDuration, m.TradesClosed)
	return m
}
