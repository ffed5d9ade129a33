// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Package events distributes policy change notifications over NATS
// JetStream.
//
// Every admin mutation to a role or permission publishes a ChangeEvent.
// Each running instance subscribes and invalidates its decision cache
// for the affected role, so multi-instance deployments converge without
// sharing cache state. A single-instance deployment can run the
// embedded NATS server and needs no external broker.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Topics for policy change events. The stream subscribes to the
// wildcard so one stream carries both entities.
const (
	TopicRoleChanges       = "policy.role"
	TopicPermissionChanges = "policy.permission"
	TopicWildcard          = "policy.>"
)

// ChangeEvent describes one administrative mutation.
type ChangeEvent struct {
	// EventID is unique per event, used for JetStream deduplication
	EventID string `json:"event_id"`

	// Entity is what changed: "role" or "permission"
	Entity string `json:"entity"`

	// Action is the mutation: "create", "update", "delete"
	Action string `json:"action"`

	// RoleName is the affected role
	RoleName string `json:"role_name"`

	// PolicyName is set for permission changes
	PolicyName string `json:"policy_name,omitempty"`

	// Actor is the admin identity that made the change
	Actor string `json:"actor,omitempty"`

	// Timestamp is when the change was committed
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent creates an event with ID and timestamp populated.
func NewChangeEvent(entity, action, roleName, policyName, actor string) *ChangeEvent {
	return &ChangeEvent{
		EventID:    uuid.New().String(),
		Entity:     entity,
		Action:     action,
		RoleName:   roleName,
		PolicyName: policyName,
		Actor:      actor,
		Timestamp:  time.Now(),
	}
}

// Topic returns the JetStream subject for this event.
func (e *ChangeEvent) Topic() string {
	if e.Entity == "role" {
		return TopicRoleChanges
	}
	return TopicPermissionChanges
}

// Marshal serializes the event for the wire.
func (e *ChangeEvent) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal change event: %w", err)
	}
	return data, nil
}

// UnmarshalChangeEvent deserializes an event payload.
func UnmarshalChangeEvent(data []byte) (*ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal change event: %w", err)
	}
	if event.EventID == "" {
		return nil, fmt.Errorf("change event missing event_id")
	}
	return &event, nil
}
