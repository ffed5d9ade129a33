// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Components    map[string]string `json:"components,omitempty"`
}

// HealthLive reports process liveness. Always 200 while the process
// serves requests.
//
//	GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthStatus{
		Status:        "alive",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// HealthReady reports readiness: the policy store must answer a ping.
// Events are reported but do not fail readiness; decisions degrade to
// TTL-based cache convergence without them.
//
//	GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	components := map[string]string{
		"database": "ok",
	}
	ready := true

	if err := h.db.Ping(r.Context()); err != nil {
		components["database"] = "unreachable"
		ready = false
	}

	if h.events != nil {
		components["events"] = "ok"
		if !h.events.IsHealthy(r.Context()) {
			components["events"] = "unreachable"
		}
	}

	status := HealthStatus{
		Status:        "ready",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Components:    components,
	}

	if !ready {
		status.Status = "not ready"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    status,
			Meta:    rw.meta(),
		})
		return
	}

	rw.Success(status)
}

// Health is the combined health summary.
//
//	GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.HealthReady(w, r)
}
