// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crudgate/crudgate/internal/database"
	"github.com/crudgate/crudgate/internal/models"
)

// ListPermissions returns permission records, optionally filtered by
// role.
//
//	GET /api/v1/admin/permissions?role=editor
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	perms, err := h.db.ListPermissions(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessList(perms, len(perms))
}

// GetPermission returns one permission record by ID.
//
//	GET /api/v1/admin/permissions/{id}
func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := permissionID(rw, r)
	if !ok {
		return
	}

	perm, err := h.db.GetPermissionByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrPermissionNotFound) {
			rw.NotFound(fmt.Sprintf("permission %d not found", id))
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(perm)
}

// CreatePermission creates a permission record. The role must already
// exist; the policy name may be the wildcard "*".
//
//	POST /api/v1/admin/permissions
func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreatePermissionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationError(err.Error(), validationDetails(err))
		return
	}

	perm := models.NewPermission(req.RoleName, req.PolicyName,
		req.CanCreate, req.CanRead, req.CanUpdate, req.CanDelete)

	created, err := h.db.CreatePermission(r.Context(), perm, h.caseSensitive())
	if err != nil {
		switch {
		case errors.Is(err, database.ErrRoleNotFound):
			rw.NotFound(fmt.Sprintf("role %q not found", req.RoleName))
		case errors.Is(err, database.ErrDuplicatePermission):
			rw.Conflict(fmt.Sprintf("permission for role %q and policy %q already exists",
				req.RoleName, req.PolicyName))
		default:
			rw.DatabaseError(err)
		}
		return
	}

	h.recordAudit(r, "create", "permission", created.RoleName, created.PolicyName, grantDetail(created))
	h.publishChange(r, "permission", "create", created.RoleName, created.PolicyName)
	rw.Created(created)
}

// UpdatePermission replaces the four grant booleans of a record.
// Identity (role, policy) is immutable; recreate the record to move it.
//
//	PUT /api/v1/admin/permissions/{id}
func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := permissionID(rw, r)
	if !ok {
		return
	}

	var req UpdatePermissionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationError(err.Error(), validationDetails(err))
		return
	}

	perm, err := h.db.UpdatePermission(r.Context(), id,
		req.CanCreate, req.CanRead, req.CanUpdate, req.CanDelete)
	if err != nil {
		if errors.Is(err, database.ErrPermissionNotFound) {
			rw.NotFound(fmt.Sprintf("permission %d not found", id))
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.recordAudit(r, "update", "permission", perm.RoleName, perm.PolicyName, grantDetail(perm))
	h.publishChange(r, "permission", "update", perm.RoleName, perm.PolicyName)
	rw.Success(perm)
}

// DeletePermission removes a permission record.
//
//	DELETE /api/v1/admin/permissions/{id}
func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := permissionID(rw, r)
	if !ok {
		return
	}

	perm, err := h.db.DeletePermission(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrPermissionNotFound) {
			rw.NotFound(fmt.Sprintf("permission %d not found", id))
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.recordAudit(r, "delete", "permission", perm.RoleName, perm.PolicyName, "")
	h.publishChange(r, "permission", "delete", perm.RoleName, perm.PolicyName)
	rw.NoContent()
}

// permissionID parses the {id} URL parameter. Writes a 400 and returns
// false on failure.
func permissionID(rw *ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		rw.BadRequest(fmt.Sprintf("invalid permission id %q", raw))
		return 0, false
	}
	return id, true
}

// caseSensitive reports the engine's policy name comparison mode so
// store-level uniqueness agrees with resolution.
func (h *Handler) caseSensitive() bool {
	return h.engine.CaseSensitive()
}

// grantDetail renders the grant booleans for audit log readability.
func grantDetail(p *models.Permission) string {
	return fmt.Sprintf("create=%t read=%t update=%t delete=%t",
		p.CanCreate, p.CanRead, p.CanUpdate, p.CanDelete)
}
