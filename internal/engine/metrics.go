// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Prometheus metrics for the decision engine: decision counts and
// latency, cache performance, store health, and audit buffer pressure.
package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts authorization decisions by role, action, and outcome.
	// The policy name is deliberately omitted to keep cardinality bounded.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crudgate_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "action", "decision"},
	)

	// DecisionDuration tracks decision latency.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crudgate_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"cache_hit"},
	)

	// DeniedTotal tracks denials separately for alerting.
	DeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crudgate_denied_total",
			Help: "Total number of authorization denials",
		},
		[]string{"role", "action", "reason"},
	)

	// PolicyNotFoundTotal counts strict-mode misses surfaced as errors.
	PolicyNotFoundTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crudgate_policy_not_found_total",
			Help: "Total number of checks failing with policy not found (strict mode)",
		},
	)

	// CacheHitsTotal counts decision cache hits.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crudgate_cache_hits_total",
			Help: "Total number of decision cache hits",
		},
	)

	// CacheMissesTotal counts decision cache misses.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crudgate_cache_misses_total",
			Help: "Total number of decision cache misses",
		},
	)

	// CacheEvictionsTotal counts TTL expiries.
	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crudgate_cache_evictions_total",
			Help: "Total number of decision cache evictions (TTL expiry)",
		},
	)

	// CacheInvalidationsTotal counts cache invalidations by reason.
	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crudgate_cache_invalidations_total",
			Help: "Total number of decision cache invalidations",
		},
		[]string{"reason"},
	)

	// StoreErrorsTotal counts store read failures (which fail closed).
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crudgate_store_errors_total",
			Help: "Total number of policy store errors",
		},
		[]string{"error_type"},
	)

	// BreakerState reports the store circuit breaker state (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crudgate_store_breaker_state",
			Help: "Policy store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// AuditEventsTotal counts decision audit events logged.
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crudgate_audit_events_total",
			Help: "Total number of decision audit events logged",
		},
		[]string{"decision"},
	)

	// AuditDroppedTotal counts audit events dropped on buffer overflow.
	AuditDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crudgate_audit_dropped_total",
			Help: "Total number of decision audit events dropped (buffer overflow)",
		},
	)

	// AdminChangesTotal counts admin mutations to roles and permissions.
	AdminChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crudgate_admin_changes_total",
			Help: "Total number of administrative changes to roles and permissions",
		},
		[]string{"entity", "action"},
	)
)

// RecordDecision records the metrics for one completed check.
func RecordDecision(role string, action string, allowed bool, duration time.Duration, cacheHit bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	DecisionsTotal.WithLabelValues(role, action, decision).Inc()

	cacheHitLabel := "false"
	if cacheHit {
		cacheHitLabel = "true"
		CacheHitsTotal.Inc()
	} else {
		CacheMissesTotal.Inc()
	}
	DecisionDuration.WithLabelValues(cacheHitLabel).Observe(duration.Seconds())
}

// RecordDenial records a denial with its reason for alerting.
func RecordDenial(role, action, reason string) {
	DeniedTotal.WithLabelValues(role, action, reason).Inc()
}

// RecordCacheEviction records a TTL expiry.
func RecordCacheEviction() {
	CacheEvictionsTotal.Inc()
}

// RecordCacheInvalidation records an invalidation with its cause.
func RecordCacheInvalidation(reason string) {
	CacheInvalidationsTotal.WithLabelValues(reason).Inc()
}

// RecordStoreError records a store failure by type.
func RecordStoreError(errorType string) {
	StoreErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordAuditEvent records an audit event being logged.
func RecordAuditEvent(allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	AuditEventsTotal.WithLabelValues(decision).Inc()
}

// RecordAuditDropped records an audit event being dropped.
func RecordAuditDropped() {
	AuditDroppedTotal.Inc()
}

// RecordAdminChange records an admin mutation for dashboards.
func RecordAdminChange(entity, action string) {
	AdminChangesTotal.WithLabelValues(entity, action).Inc()
}
