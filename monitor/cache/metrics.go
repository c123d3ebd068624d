package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Requests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "monitor",
	Subsystem: "cache",
	Name:      "requests_total",
	Help:      "Consistency cache lookups grouped by cache and result.",
}, []string{"cache", "result"})

func ObserveRequest(cache, result string) {
	Requests.WithLabelValues(cache, result).Inc()
}
