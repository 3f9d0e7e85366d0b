// Package observability provides metrics capabilities for the store client.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics namespace for all store client metrics.
const metricsNamespace = "store_client"

// Transport metrics.
var (
	// RequestsTotal counts RPC calls by action and terminal status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Total RPC calls issued",
		},
		[]string{"action", "status"},
	)

	// RequestDuration measures the duration of RPC calls in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of RPC calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"action"},
	)

	// AuthRetriesTotal counts auth-expiry retries by action.
	AuthRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auth_retries_total",
			Help:      "Total retries triggered by auth-expiry failures",
		},
		[]string{"action"},
	)

	// CoalescedCallsTotal counts calls served by an already in-flight request.
	CoalescedCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "coalesced_calls_total",
			Help:      "Total calls coalesced onto an in-flight request",
		},
		[]string{"action"},
	)

	// FallbackAttemptsTotal counts fallback transport attempts by status.
	FallbackAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fallback_attempts_total",
			Help:      "Total callback transport fallback attempts",
		},
		[]string{"status"},
	)
)

// Token metrics.
var (
	// TokenRefreshesTotal counts identity token fetches by status.
	TokenRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_refreshes_total",
			Help:      "Total identity token fetches",
		},
		[]string{"status"},
	)
)

// Store metrics.
var (
	// CacheHydrationsTotal counts cache hydration attempts by outcome.
	CacheHydrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hydrations_total",
			Help:      "Total cache envelope hydration attempts",
		},
		[]string{"outcome"},
	)

	// StoreNotificationsTotal counts emitted store change notifications by key.
	StoreNotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "store_notifications_total",
			Help:      "Total store change notifications emitted",
		},
		[]string{"key"},
	)
)

func init() {
	// Register all metrics with the default registry.
	prometheus.MustRegister(
		// Transport metrics
		RequestsTotal,
		RequestDuration,
		AuthRetriesTotal,
		CoalescedCallsTotal,
		FallbackAttemptsTotal,
		// Token metrics
		TokenRefreshesTotal,
		// Store metrics
		CacheHydrationsTotal,
		StoreNotificationsTotal,
	)
}
