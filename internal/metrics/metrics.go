// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics declares the Prometheus collectors for search,
// fallback, recommendation and persistence activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookfinder_search_duration_seconds",
			Help:    "Duration of paginated searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"fallback"},
	)

	SearchPrefetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookfinder_search_prefetched_results",
			Help:    "Unique results fetched beyond the returned page",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		},
	)

	FallbackTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookfinder_fallback_triggered_total",
			Help: "Searches that consulted external providers, by reason",
		},
		[]string{"reason"}, // "empty", "underfilled", "cover_gap", "metadata_gap"
	)

	FallbackCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookfinder_fallback_candidates_total",
			Help: "Fallback candidates by classification",
		},
		[]string{"kind"}, // "new", "refresh"
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookfinder_provider_requests_total",
			Help: "External provider calls by outcome",
		},
		[]string{"provider", "outcome"}, // outcome: "ok", "error", "cached"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookfinder_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookfinder_recommend_requests_total",
			Help: "Similar-book requests by path",
		},
		[]string{"path"}, // "cache_hit", "computed", "not_found", "external"
	)

	StrategyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookfinder_recommend_strategy_errors_total",
			Help: "Candidate discovery failures absorbed per strategy",
		},
		[]string{"strategy"},
	)

	PersistTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookfinder_persist_tasks_total",
			Help: "Background catalog writes by tag and outcome",
		},
		[]string{"tag", "outcome"},
	)
)
