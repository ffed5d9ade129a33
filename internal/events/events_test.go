// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package events

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestChangeEventRoundTrip(t *testing.T) {
	event := NewChangeEvent("permission", "update", "editor", "articles", "admin")
	if event.EventID == "" {
		t.Fatal("expected event ID to be populated")
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be populated")
	}

	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	decoded, err := UnmarshalChangeEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalChangeEvent: %v", err)
	}
	if decoded.EventID != event.EventID {
		t.Errorf("event ID = %q, want %q", decoded.EventID, event.EventID)
	}
	if decoded.Entity != "permission" || decoded.Action != "update" {
		t.Errorf("entity/action = %q/%q, want permission/update", decoded.Entity, decoded.Action)
	}
	if decoded.RoleName != "editor" || decoded.PolicyName != "articles" {
		t.Errorf("role/policy = %q/%q, want editor/articles", decoded.RoleName, decoded.PolicyName)
	}
	if decoded.Actor != "admin" {
		t.Errorf("actor = %q, want admin", decoded.Actor)
	}
}

func TestUnmarshalChangeEventRejectsMissingID(t *testing.T) {
	if _, err := UnmarshalChangeEvent([]byte(`{"entity":"role","action":"create"}`)); err == nil {
		t.Fatal("expected error for event without event_id")
	}
	if _, err := UnmarshalChangeEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestChangeEventTopic(t *testing.T) {
	tests := []struct {
		entity string
		want   string
	}{
		{"role", TopicRoleChanges},
		{"permission", TopicPermissionChanges},
	}
	for _, tt := range tests {
		event := NewChangeEvent(tt.entity, "create", "editor", "", "admin")
		if got := event.Topic(); got != tt.want {
			t.Errorf("Topic() for %s = %q, want %q", tt.entity, got, tt.want)
		}
	}
}

type recordingInvalidator struct {
	roles []string
}

func (r *recordingInvalidator) InvalidateRole(role string) {
	r.roles = append(r.roles, role)
}

func TestInvalidatorHandleAcksAndInvalidates(t *testing.T) {
	rec := &recordingInvalidator{}
	inv := &Invalidator{engine: rec}

	event := NewChangeEvent("permission", "delete", "editor", "articles", "admin")
	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	msg := message.NewMessage(event.EventID, data)
	inv.handle(msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("expected message to be acked")
	}
	if len(rec.roles) != 1 || rec.roles[0] != "editor" {
		t.Fatalf("invalidated roles = %v, want [editor]", rec.roles)
	}
}

func TestInvalidatorHandleDropsMalformed(t *testing.T) {
	rec := &recordingInvalidator{}
	inv := &Invalidator{engine: rec}

	msg := message.NewMessage("bad", []byte("not an event"))
	inv.handle(msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("expected malformed message to be acked, not redelivered")
	}
	if len(rec.roles) != 0 {
		t.Fatalf("expected no invalidations, got %v", rec.roles)
	}
}
