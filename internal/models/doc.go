// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

/*
Package models defines the data structures of the authorization engine.

This package contains the types shared by the policy record store, the
access decision engine, and the HTTP API: roles, permissions, the closed
CRUD action set, decision records broadcast to stream subscribers, and
audit entries written for administrative changes.

Key Components:

  - Role: named category of caller, referenced by permission records
  - Permission: per-(role, policy) grant record with four independent
    CRUD booleans; the policy name may be the literal wildcard "*"
  - Action: closed enumeration {create, read, update, delete}
  - Decision: the outcome of one authorization check
  - PermissionAuditEntry: who changed what, written on admin mutations

These types carry no decision logic; evaluation semantics live in
internal/engine and persistence in internal/database.
*/
package models
