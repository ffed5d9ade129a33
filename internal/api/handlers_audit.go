// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/crudgate/crudgate/internal/database"
)

// ListAuditEntries returns admin change audit records, newest first.
//
//	GET /api/v1/admin/audit?actor=alice&entity=permission&role=editor
//	GET /api/v1/admin/audit?since=2026-08-01T00:00:00Z&limit=50
func (h *Handler) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter, err := auditFilterFromQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	entries, err := h.db.ListAuditEntries(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessList(entries, len(entries))
}

// AuditStats returns summary counts over the audit log.
//
//	GET /api/v1/admin/audit/stats
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.db.GetAuditStats(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(stats)
}

// auditFilterFromQuery builds an AuditFilter from query parameters.
func auditFilterFromQuery(r *http.Request) (database.AuditFilter, error) {
	q := r.URL.Query()
	filter := database.AuditFilter{
		Actor:    q.Get("actor"),
		Action:   q.Get("action"),
		Entity:   q.Get("entity"),
		RoleName: q.Get("role"),
	}

	var err error
	if filter.Since, err = parseTimeParam(q.Get("since")); err != nil {
		return filter, err
	}
	if filter.Until, err = parseTimeParam(q.Get("until")); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseIntParam(q.Get("limit")); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseIntParam(q.Get("offset")); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func parseIntParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
