// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

/*
permission.go - Permission Model

This file defines the Permission entity: a (role, policy_name) pair
mapped to four independent CRUD booleans.

Invariants:
  - At most one record per (role, normalized policy_name) pair. The
    store enforces this on insert; the resolver still applies a
    deterministic tie-break (lowest ID) if duplicates slip in.
  - policy_name may be the literal wildcard "*", matching every policy
    the role has no exact record for.
  - The decision engine only ever reads these records; mutation is an
    admin API concern.
*/

package models

import (
	"fmt"
	"strings"
	"time"
)

// WildcardPolicy is the special policy name matching any policy not
// otherwise explicitly granted for a role.
const WildcardPolicy = "*"

// MaxPolicyNameLength bounds policy names, matching MaxRoleNameLength.
const MaxPolicyNameLength = 128

// Permission maps a (role, policy) pair to four independent CRUD
// grant booleans. A false boolean is an explicit deny for that action;
// there is no inheritance between actions.
type Permission struct {
	// ID is the primary key (auto-generated, not auto-increment in DuckDB)
	ID int64 `json:"id"`

	// RoleName references the role this grant belongs to
	RoleName string `json:"role_name"`

	// PolicyName is the protected resource class, or "*" for the wildcard
	PolicyName string `json:"policy_name"`

	// CanCreate grants the create action
	CanCreate bool `json:"can_create"`

	// CanRead grants the read action
	CanRead bool `json:"can_read"`

	// CanUpdate grants the update action
	CanUpdate bool `json:"can_update"`

	// CanDelete grants the delete action
	CanDelete bool `json:"can_delete"`

	// CreatedAt is when the record was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record was last modified
	UpdatedAt time.Time `json:"updated_at"`
}

// Allows returns the stored boolean for the requested action,
// verbatim. Unknown actions never grant.
func (p *Permission) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return p.CanCreate
	case ActionRead:
		return p.CanRead
	case ActionUpdate:
		return p.CanUpdate
	case ActionDelete:
		return p.CanDelete
	default:
		return false
	}
}

// IsWildcard reports whether this record is the role's wildcard grant.
func (p *Permission) IsWildcard() bool {
	return p.PolicyName == WildcardPolicy
}

// ValidatePolicyName checks that a policy name is storable. The
// wildcard token is valid here; empty names are not.
func ValidatePolicyName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("policy name is required")
	}
	if len(name) > MaxPolicyNameLength {
		return fmt.Errorf("policy name exceeds %d characters", MaxPolicyNameLength)
	}
	return nil
}

// FoldPolicyName lowercases a policy name for case-insensitive
// matching. The wildcard token folds to itself.
func FoldPolicyName(name string) string {
	return strings.ToLower(name)
}

// NewPermission creates a Permission with creation timestamps set.
func NewPermission(roleName, policyName string, canCreate, canRead, canUpdate, canDelete bool) *Permission {
	now := time.Now()
	return &Permission{
		RoleName:   roleName,
		PolicyName: policyName,
		CanCreate:  canCreate,
		CanRead:    canRead,
		CanUpdate:  canUpdate,
		CanDelete:  canDelete,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
