// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

/*
audit.go - Permission Audit Models

This file defines audit log entries for administrative changes to
roles and permissions. Every create, update, and delete through the
admin API is recorded append-only.

Usage:
  - Database operations in internal/database/audit.go
  - Admin API in internal/api/handlers_audit.go
*/

package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction constants define the types of audit log entries.
const (
	// AuditActionCreate indicates a role or permission was created.
	AuditActionCreate = "create"

	// AuditActionUpdate indicates a role or permission was modified.
	AuditActionUpdate = "update"

	// AuditActionDelete indicates a role or permission was removed.
	AuditActionDelete = "delete"
)

// AuditEntity constants define what kind of record was changed.
const (
	// AuditEntityRole marks changes to role records.
	AuditEntityRole = "role"

	// AuditEntityPermission marks changes to permission records.
	AuditEntityPermission = "permission"
)

// PermissionAuditEntry records an administrative change for audit
// purposes. Entries are immutable once created (append-only log).
type PermissionAuditEntry struct {
	// ID is the primary key (UUID for global uniqueness)
	ID uuid.UUID `json:"id"`

	// Timestamp is when the change occurred
	Timestamp time.Time `json:"timestamp"`

	// Actor is the admin identity that performed the change
	// ("system" for automated changes such as seeding)
	Actor string `json:"actor"`

	// Action is the type of change (create, update, delete)
	Action string `json:"action"`

	// Entity is the kind of record changed (role, permission)
	Entity string `json:"entity"`

	// RoleName is the role the change applies to
	RoleName string `json:"role_name"`

	// PolicyName is set for permission changes, empty for role changes
	PolicyName string `json:"policy_name,omitempty"`

	// Detail is an optional human-readable description of the change
	Detail string `json:"detail,omitempty"`

	// RequestID correlates the change with an HTTP request log line
	RequestID string `json:"request_id,omitempty"`

	// IPAddress is the client IP address (for web requests)
	IPAddress string `json:"ip_address,omitempty"`
}

// NewPermissionAuditEntry creates an audit entry with ID and timestamp
// populated.
func NewPermissionAuditEntry(actor, action, entity, roleName, policyName string) *PermissionAuditEntry {
	return &PermissionAuditEntry{
		ID:         uuid.New(),
		Timestamp:  time.Now(),
		Actor:      actor,
		Action:     action,
		Entity:     entity,
		RoleName:   roleName,
		PolicyName: policyName,
	}
}

// AuditStats summarizes the audit log for the admin dashboard.
type AuditStats struct {
	// TotalEntries is the number of audit records
	TotalEntries int `json:"total_entries"`

	// ByAction is the count of entries per action type
	ByAction map[string]int `json:"by_action"`

	// ByEntity is the count of entries per entity type
	ByEntity map[string]int `json:"by_entity"`

	// OldestEntry is the timestamp of the first record (nil when empty)
	OldestEntry *time.Time `json:"oldest_entry,omitempty"`

	// NewestEntry is the timestamp of the last record (nil when empty)
	NewestEntry *time.Time `json:"newest_entry,omitempty"`
}
