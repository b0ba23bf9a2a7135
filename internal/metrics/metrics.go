// Package metrics holds the Prometheus collectors for catalog access and matching.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog access
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of upstream catalog requests by outcome",
		},
		[]string{"source", "operation", "outcome"}, // outcome: success, not_found, error, timeout, rate_limited, rejected
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of upstream catalog requests including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "operation"},
	)

	CatalogRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_retries_total",
			Help: "Total number of retried upstream requests",
		},
		[]string{"source", "reason"}, // reason: transport, server_error, rate_limited
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Catalog response cache lookups by kind and result",
		},
		[]string{"source", "kind", "result"}, // result: hit, miss
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_circuit_breaker_state",
			Help: "Circuit breaker state per source (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)

	// Matching
	IngredientMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingredient_matches_total",
			Help: "Total number of ingredient matches by match type",
		},
		[]string{"match_type"},
	)

	IngredientMatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingredient_match_duration_seconds",
			Help:    "Duration of a full ingredient match cascade",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordCatalogRequest records one logical upstream call
func RecordCatalogRequest(source, operation, outcome string, duration time.Duration) {
	CatalogRequestsTotal.WithLabelValues(source, operation, outcome).Inc()
	CatalogRequestDuration.WithLabelValues(source, operation).Observe(duration.Seconds())
}

// RecordRetry records one retry decision
func RecordRetry(source, reason string) {
	CatalogRetriesTotal.WithLabelValues(source, reason).Inc()
}

// RecordCacheLookup records a response cache hit or miss
func RecordCacheLookup(source, kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CatalogCacheLookups.WithLabelValues(source, kind, result).Inc()
}

// RecordMatch records the outcome of one ingredient match
func RecordMatch(matchType string, duration time.Duration) {
	IngredientMatchesTotal.WithLabelValues(matchType).Inc()
	IngredientMatchDuration.Observe(duration.Seconds())
}
