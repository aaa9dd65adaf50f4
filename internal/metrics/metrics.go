// Package metrics defines Prometheus metrics for rulesync.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rulesync"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last /healthz probe succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last /readyz probe succeeded, 0 otherwise.",
	})
)

// Wait metrics.
var (
	WaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "wait_duration_seconds",
		Help:      "Wall-clock time of waits that converged or timed out.",
		Buckets:   []float64{0.5, 1, 3, 6, 10, 20, 30, 60, 90, 120},
	}, []string{"kind", "outcome"})

	WaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "waits_total",
		Help:      "Total number of finished waits by kind and outcome.",
	}, []string{"kind", "outcome"})

	WaitTicks = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "wait_ticks",
		Help:      "Number of polls performed per finished wait.",
		Buckets:   prometheus.LinearBuckets(1, 5, 7), // 1, 6, 11, ..., 31
	})

	ActiveWaits = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_waits",
		Help:      "Number of waits currently polling.",
	})
)

// Backend metrics.
var (
	FetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_errors_total",
		Help:      "Total number of failed backend fetches by store.",
	}, []string{"store"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of backend fetches in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"store"})

	DegradedSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "degraded_sync_total",
		Help:      "Total number of in-sync verdicts declared because a backend could not be observed.",
	}, []string{"reason"})
)

// Audit metrics.
var (
	AuditRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_runs_total",
		Help:      "Total number of drift audit runs.",
	})

	AuditDriftTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_drift_total",
		Help:      "Total number of groups reported as drifted by the audit.",
	})

	AuditOrphanRules = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_orphan_rules",
		Help:      "Unmatched rules per audited group and side at the last audit.",
	}, []string{"source", "namespace", "group", "side"})

	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of notification webhook calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures.",
	})
)
