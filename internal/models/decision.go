// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package models

import "time"

// MatchKind describes which permission record, if any, produced a
// decision.
type MatchKind string

// Match kinds reported on decisions.
const (
	// MatchSpecific means an exact (role, policy) record decided.
	MatchSpecific MatchKind = "specific"

	// MatchWildcard means the role's "*" record decided.
	MatchWildcard MatchKind = "wildcard"

	// MatchNone means no record existed for the pair.
	MatchNone MatchKind = "none"
)

// Decision is the outcome of a single authorization check. Decisions
// are emitted to the websocket stream and recorded by the async audit
// logger; they are never persisted by the engine itself.
type Decision struct {
	// Role is the caller's role, empty when the caller had none
	Role string `json:"role"`

	// Policy is the normalized policy name the check ran against
	Policy string `json:"policy"`

	// RequestedPolicy is the raw name supplied by the caller, empty
	// when the default was substituted
	RequestedPolicy string `json:"requested_policy,omitempty"`

	// Action is the CRUD action that was checked
	Action Action `json:"action"`

	// Allowed is the verdict
	Allowed bool `json:"allowed"`

	// Match reports which record decided (specific, wildcard, none)
	Match MatchKind `json:"match"`

	// CacheHit is true when the verdict came from the decision cache
	CacheHit bool `json:"cache_hit"`

	// Timestamp is when the check completed
	Timestamp time.Time `json:"timestamp"`

	// RequestID correlates the decision with an HTTP request
	RequestID string `json:"request_id,omitempty"`
}
