// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Package metrics exposes Prometheus instrumentation for the HTTP
// surface. Decision engine metrics live in the engine package; these
// cover the transport layer only.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crudgate_http_requests_total",
			Help: "Total HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crudgate_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPActiveRequests gauges requests currently in flight.
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crudgate_http_active_requests",
			Help: "HTTP requests currently being processed",
		},
	)

	// WebsocketClients gauges connected decision stream clients.
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crudgate_websocket_clients",
			Help: "Connected websocket decision stream clients",
		},
	)

	// WebsocketMessagesDropped counts decisions dropped because a
	// client's send buffer was full.
	WebsocketMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crudgate_websocket_messages_dropped_total",
			Help: "Decision stream messages dropped due to slow clients",
		},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}
