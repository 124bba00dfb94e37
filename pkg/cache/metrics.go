package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache and ledger operations.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_cache_misses_total",
		Help: "Total cache misses",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_cache_errors_total",
		Help: "Total cache operation errors by operation",
	}, []string{"operation"})

	fetchThroughTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_cache_fetch_through_total",
		Help: "Total fetches that went through to the upstream",
	})

	ledgerMarksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_processed_marks_total",
		Help: "Total identifiers marked processed in the ledger",
	})
)
