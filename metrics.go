package zbitvector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the collectors reported by a session.
type metrics struct {
	checks   *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zbitvector_checks_total",
			Help: "Number of satisfiability checks by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zbitvector_check_seconds",
			Help:    "Time spent in satisfiability checks.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.checks, m.duration}
}
