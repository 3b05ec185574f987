// Package metrics provides the centralized Prometheus metrics registry
// for scrollkit. All metrics are defined in their owning packages
// (paginate, window, httpfetch) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by scrollkit. All
// metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Controller Metrics (pkg/paginate):
//   - scrollkit_fetches_total{mode, status} (Counter): Fetches by pagination mode and outcome (success, error, stale)
//   - scrollkit_fetch_duration_seconds{mode} (Histogram): Fetch duration by mode
//   - scrollkit_items_fetched_total{mode} (Counter): Items extracted from successful fetches
//   - scrollkit_resets_total (Counter): Controller resets
//
// Windowing Metrics (pkg/window):
//   - scrollkit_index_rebuilds_total (Counter): Position index rebuilds
//   - scrollkit_window_computes_total (Counter): Render window computations
//   - scrollkit_near_end_signals_total (Counter): Near-end signals fired to the load-more callback
//
// HTTP Transport Metrics (pkg/httpfetch):
//   - scrollkit_http_requests_total{status} (Counter): Backend requests by HTTP status
//   - scrollkit_http_request_duration_seconds (Histogram): Backend request duration
//   - scrollkit_http_retries_total{error_class} (Counter): Retry attempts by error class
//   - scrollkit_http_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - scrollkit_http_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Fetch Error Rate
//   sum(rate(scrollkit_fetches_total{status="error"}[5m])) /
//   sum(rate(scrollkit_fetches_total[5m]))
//
//   # Items Loaded Per Second
//   rate(scrollkit_items_fetched_total[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(scrollkit_fetch_duration_seconds_bucket[5m]))
//
//   # Near-End Signal Pressure
//   rate(scrollkit_near_end_signals_total[5m])
