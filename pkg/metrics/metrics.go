// Package metrics documents the Prometheus metrics exposed by the gateway.
// All collectors are defined in their respective packages (client, ratelimit,
// cache) via promauto to maintain modularity and avoid circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registerer used by the gateway.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Upstream Request Metrics (pkg/client):
//   - riot_requests_total{method, status} (Counter): Upstream requests by method and HTTP status
//   - riot_request_duration_seconds{method} (Histogram): Upstream request duration
//   - riot_errors_total{kind} (Counter): Errors by taxonomy kind
//   - riot_key_rotations_total (Counter): 429-triggered rotations to the next API key
//   - riot_key_exhaustions_total (Counter): Requests that throttled on every key
//
// Rate Limit Metrics (pkg/ratelimit):
//   - riot_rate_limit_acquires_total (Counter): Tokens acquired from both buckets
//   - riot_rate_limit_wait_seconds (Histogram): Time spent waiting for admission
//
// Cache Metrics (pkg/cache):
//   - gateway_cache_hits_total (Counter): Cache hits
//   - gateway_cache_misses_total (Counter): Cache misses
//   - gateway_cache_errors_total{operation} (Counter): Cache/ledger operation errors
//   - gateway_cache_fetch_through_total (Counter): Fetches that reached the upstream
//   - gateway_processed_marks_total (Counter): Identifiers marked processed
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(gateway_cache_hits_total[5m]) /
//   (rate(gateway_cache_hits_total[5m]) + rate(gateway_cache_misses_total[5m]))
//
//   # Share of requests delayed by the client-side limiter
//   histogram_quantile(0.95, rate(riot_rate_limit_wait_seconds_bucket[5m]))
//
//   # Key exhaustion rate (all keys throttled)
//   rate(riot_key_exhaustions_total[5m])
//
//   # Upstream error rate by kind
//   rate(riot_errors_total[5m])
