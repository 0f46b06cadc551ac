package differ

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the instrumentation of the state differ.
type Metrics struct {
	diffDuration prometheus.Histogram
	changes      *prometheus.CounterVec
}

// NewMetrics creates and registers the differ metrics on the given registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		diffDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dexquote",
			Subsystem: "differ",
			Name:      "diff_duration_seconds",
			Help:      "Time spent computing one state diff.",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexquote",
			Subsystem: "differ",
			Name:      "changes_total",
			Help:      "Number of changes detected, by state section.",
		}, []string{"section"}),
	}

	registry.MustRegister(m.diffDuration, m.changes)
	return m
}
