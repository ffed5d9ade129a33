// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

/*
role.go - Role Model

This file defines the Role entity: a named category of caller against
which permission records are resolved. Role names are unique; the
caller-to-role association is owned by the identity layer and treated
here as an opaque lookup producing at most one role per caller.

Usage:
  - Database operations in internal/database/roles.go
  - Access decisions in internal/engine/engine.go
  - Admin API in internal/api/handlers_roles.go
*/

package models

import (
	"fmt"
	"strings"
	"time"
)

// MaxRoleNameLength bounds role names to keep index keys and log
// fields small.
const MaxRoleNameLength = 128

// Role represents a named category of caller.
// Identity is immutable once created: the name is unique and never
// changes; only the description may be updated.
type Role struct {
	// ID is the primary key (auto-generated, not auto-increment in DuckDB)
	ID int64 `json:"id"`

	// Name is the unique role identifier (e.g., "editor", "admin")
	Name string `json:"name"`

	// Description is optional free text shown in the admin API
	Description string `json:"description,omitempty"`

	// CreatedAt is when the role was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the role was last modified
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateRoleName checks that a role name is usable as a stored
// identifier. The wildcard token is reserved for policy names and is
// never a valid role.
func ValidateRoleName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("role name is required")
	}
	if name == WildcardPolicy {
		return fmt.Errorf("role name %q is reserved", WildcardPolicy)
	}
	if len(name) > MaxRoleNameLength {
		return fmt.Errorf("role name exceeds %d characters", MaxRoleNameLength)
	}
	return nil
}

// NewRole creates a new Role with creation timestamps set.
func NewRole(name, description string) *Role {
	now := time.Now()
	return &Role{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
