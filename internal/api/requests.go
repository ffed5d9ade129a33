// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// validate is the shared validator instance. validator.Validate is
// safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// maxRequestBody bounds request body size for all JSON endpoints.
const maxRequestBody = 1 << 20 // 1 MB

// CheckRequest asks for one authorization decision.
type CheckRequest struct {
	// Role is the caller's role name. An empty role is a valid
	// request that always denies, so it carries no required tag.
	Role string `json:"role"`

	// Policy is the resource class to check. Empty means the
	// configured default policy.
	Policy string `json:"policy"`

	// Action is the CRUD action: create, read, update, or delete.
	Action string `json:"action" validate:"required"`
}

// BatchCheckRequest asks for several decisions in one round trip.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" validate:"required,min=1,max=100,dive"`
}

// CreateRoleRequest creates a role.
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=512"`
}

// UpdateRoleRequest updates a role's description. The name is
// immutable.
type UpdateRoleRequest struct {
	Description string `json:"description" validate:"max=512"`
}

// CreatePermissionRequest creates a permission record for a role.
type CreatePermissionRequest struct {
	RoleName   string `json:"role_name" validate:"required,max=128"`
	PolicyName string `json:"policy_name" validate:"required,max=128"`
	CanCreate  bool   `json:"can_create"`
	CanRead    bool   `json:"can_read"`
	CanUpdate  bool   `json:"can_update"`
	CanDelete  bool   `json:"can_delete"`
}

// UpdatePermissionRequest updates the four grant booleans of a
// permission record. Identity (role, policy) is immutable.
type UpdatePermissionRequest struct {
	CanCreate bool `json:"can_create"`
	CanRead   bool `json:"can_read"`
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
}

// LoginRequest exchanges credentials for a bearer token.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. Returns a client-presentable error on failure.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// validationDetails flattens validator errors into field/tag pairs for
// the error response body.
func validationDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, map[string]string{
			"field": fe.Field(),
			"tag":   fe.Tag(),
		})
	}
	return details
}
