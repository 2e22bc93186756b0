// Package metrics provides the Prometheus registry and exposition handler
// for the breed feed. All metrics are defined in their respective packages
// (client, pagination, ratelimit, network, cache, proxy) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the breed feed.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics gathered from Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - breeds_requests_total{status} (Counter): Page requests by HTTP status or "transport_error"
//   - breeds_request_duration_seconds (Histogram): Page request duration
//   - breeds_errors_total{class} (Counter): Errors by class (timeout, server, client, aborted, unknown)
//
// Retry Metrics (pkg/client):
//   - breeds_retries_total{error_class} (Counter): Retry attempts by error class
//   - breeds_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - breeds_retry_exhausted_total{error_class} (Counter): Sessions that exhausted max retries
//
// Session Metrics (pkg/pagination):
//   - breeds_sessions_total{outcome} (Counter): success, error, aborted, superseded
//   - breeds_stale_settlements_total (Counter): Settlements discarded by the stale guard
//   - breeds_items_loaded (Gauge): Items currently accumulated
//
// Trigger Metrics (pkg/ratelimit, pkg/network):
//   - breeds_throttle_calls_total{result} (Counter): executed, dropped, deferred
//   - breeds_network_transitions_total{event} (Counter): online, offline
//
// Store Metrics (pkg/cache):
//   - breeds_store_operations_total{backend, operation, result} (Counter)
//   - breeds_store_size_bytes{backend} (Gauge): Size of the last persisted value
//
// Proxy Metrics (internal/proxy):
//   - breeds_proxy_responses_total{outcome} (Counter): passthrough, simulated, upstream_error
//
// Example Prometheus Queries:
//
//   # Share of sessions ending in error
//   sum(rate(breeds_sessions_total{outcome="error"}[5m])) / sum(rate(breeds_sessions_total[5m]))
//
//   # Retry pressure
//   rate(breeds_retries_total[5m])
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(breeds_request_duration_seconds_bucket[5m]))
//
//   # Refetch storms absorbed by the throttle
//   rate(breeds_throttle_calls_total{result="dropped"}[5m])
