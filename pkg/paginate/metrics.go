package paginate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for controller operations.
var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollkit_fetches_total",
		Help: "Total pagination fetches by mode and outcome",
	}, []string{"mode", "status"}) // status: success, error, stale

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrollkit_fetch_duration_seconds",
		Help:    "Pagination fetch duration in seconds by mode",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"mode"})

	itemsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollkit_items_fetched_total",
		Help: "Total items extracted from successful fetches by mode",
	}, []string{"mode"})

	resetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrollkit_resets_total",
		Help: "Total controller resets",
	})
)
