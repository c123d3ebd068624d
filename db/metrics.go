package db

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "monitor",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of database queries grouped by repository method.",
		Buckets:   []float64{0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"query"})

	QueryResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monitor",
		Subsystem: "db",
		Name:      "query_results_total",
		Help:      "Number of database queries grouped by repository method and outcome.",
	}, []string{"query", "status"})
)

// ObserveQuery starts a query timer. The returned func stops it and records the outcome.
func ObserveQuery(query string) func(err error) {
	timer := prometheus.NewTimer(QueryDurations.WithLabelValues(query))
	return func(err error) {
		timer.ObserveDuration()
		switch {
		case err == nil:
			QueryResults.WithLabelValues(query, "ok").Inc()
		case errors.Is(err, ErrNotFound):
			QueryResults.WithLabelValues(query, "not_found").Inc()
		default:
			QueryResults.WithLabelValues(query, "error").Inc()
		}
	}
}
