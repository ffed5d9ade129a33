// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crudgate/crudgate/internal/database"
	"github.com/crudgate/crudgate/internal/models"
)

// ListRoles returns all roles.
//
//	GET /api/v1/admin/roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	roles, err := h.db.ListRoles(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessList(roles, len(roles))
}

// GetRole returns one role by name.
//
//	GET /api/v1/admin/roles/{name}
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := chi.URLParam(r, "name")

	role, err := h.db.GetRole(r.Context(), name)
	if err != nil {
		if errors.Is(err, database.ErrRoleNotFound) {
			rw.NotFound(fmt.Sprintf("role %q not found", name))
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(role)
}

// CreateRole creates a role.
//
//	POST /api/v1/admin/roles
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateRoleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationError(err.Error(), validationDetails(err))
		return
	}

	if err := models.ValidateRoleName(req.Name); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	role, err := h.db.CreateRole(r.Context(), models.NewRole(req.Name, req.Description))
	if err != nil {
		if errors.Is(err, database.ErrDuplicateRole) {
			rw.Conflict(fmt.Sprintf("role %q already exists", req.Name))
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.recordAudit(r, "create", "role", role.Name, "", "")
	h.publishChange(r, "role", "create", role.Name, "")
	rw.Created(role)
}

// UpdateRole updates a role's description. The name is immutable.
//
//	PUT /api/v1/admin/roles/{name}
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := chi.URLParam(r, "name")

	var req UpdateRoleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationError(err.Error(), validationDetails(err))
		return
	}

	role, err := h.db.UpdateRoleDescription(r.Context(), name, req.Description)
	if err != nil {
		if errors.Is(err, database.ErrRoleNotFound) {
			rw.NotFound(fmt.Sprintf("role %q not found", name))
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.recordAudit(r, "update", "role", name, "", "description updated")
	h.publishChange(r, "role", "update", name, "")
	rw.Success(role)
}

// DeleteRole deletes a role and all its permission records. Deleting a
// role makes it unknown to the engine: subsequent checks for it deny
// unconditionally.
//
//	DELETE /api/v1/admin/roles/{name}
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := chi.URLParam(r, "name")

	if err := h.db.DeleteRole(r.Context(), name); err != nil {
		if errors.Is(err, database.ErrRoleNotFound) {
			rw.NotFound(fmt.Sprintf("role %q not found", name))
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.recordAudit(r, "delete", "role", name, "", "role and permissions removed")
	h.publishChange(r, "role", "delete", name, "")
	rw.NoContent()
}
