// Package metrics documents the Prometheus metrics exported by the catalog
// client. All metrics are defined in their respective packages (client,
// cache, ratelimit, selection) to maintain modularity and avoid circular
// dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the catalog client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - catalog_requests_total{status} (Counter): Total requests by HTTP status
//   - catalog_request_duration_seconds (Histogram): Request duration
//   - catalog_errors_total{class} (Counter): Errors by class (network, parse, client, server, rate_limit)
//
// Retry Metrics (pkg/client):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - catalog_cache_misses_total (Counter): Cache misses
//   - catalog_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - catalog_304_responses_total (Counter): 304 Not Modified responses
//   - catalog_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - catalog_rate_limit_remaining (Gauge): Request budget left in the current window
//   - catalog_rate_limit_blocks_total (Counter): Requests blocked due to critical budget
//   - catalog_rate_limit_throttles_total (Counter): Requests throttled due to low budget
//
// Selection Metrics (pkg/selection):
//   - catalog_selection_size (Gauge): Current number of selected identifiers
//   - catalog_bulk_select_total{outcome} (Counter): Bulk operations by outcome (applied, failed, superseded)
//   - catalog_bulk_pages_fetched_total (Counter): Pages fetched by bulk operations
//   - catalog_bulk_select_duration_seconds (Histogram): Bulk operation duration
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Bulk Failure Rate
//   rate(catalog_bulk_select_total{outcome="failed"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
