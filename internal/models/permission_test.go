// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package models

import (
	"strings"
	"testing"
)

func TestPermissionAllows(t *testing.T) {
	// Each boolean is independent: granting update must not grant read.
	perm := &Permission{
		RoleName:   "editor",
		PolicyName: "articles",
		CanCreate:  true,
		CanRead:    true,
		CanUpdate:  true,
		CanDelete:  false,
	}

	tests := []struct {
		action Action
		want   bool
	}{
		{ActionCreate, true},
		{ActionRead, true},
		{ActionUpdate, true},
		{ActionDelete, false},
		{Action("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := perm.Allows(tt.action); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestPermissionAllowsIndependence(t *testing.T) {
	// update-only grant: no other action may leak through
	perm := &Permission{RoleName: "ops", PolicyName: "orders", CanUpdate: true}

	if !perm.Allows(ActionUpdate) {
		t.Error("update should be allowed")
	}
	for _, a := range []Action{ActionCreate, ActionRead, ActionDelete} {
		if perm.Allows(a) {
			t.Errorf("%s should not be allowed by an update-only grant", a)
		}
	}
}

func TestPermissionIsWildcard(t *testing.T) {
	if !(&Permission{PolicyName: WildcardPolicy}).IsWildcard() {
		t.Error("\"*\" record should report wildcard")
	}
	if (&Permission{PolicyName: "articles"}).IsWildcard() {
		t.Error("specific record should not report wildcard")
	}
}

func TestValidateRoleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "editor"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "wildcard reserved", input: WildcardPolicy, wantErr: true},
		{name: "too long", input: strings.Repeat("a", MaxRoleNameLength+1), wantErr: true},
		{name: "max length", input: strings.Repeat("a", MaxRoleNameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoleName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRoleName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePolicyName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "articles"},
		{name: "wildcard is storable", input: WildcardPolicy},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("p", MaxPolicyNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolicyName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePolicyName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
