package window

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for windowing operations.
var (
	indexRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrollkit_index_rebuilds_total",
		Help: "Total position index rebuilds",
	})

	windowComputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrollkit_window_computes_total",
		Help: "Total render window computations",
	})

	nearEndSignals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrollkit_near_end_signals_total",
		Help: "Total near-end signals fired to the load-more callback",
	})
)
