// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package models

import (
	"net/http"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{name: "create", input: "create", want: ActionCreate},
		{name: "read", input: "read", want: ActionRead},
		{name: "update", input: "update", want: ActionUpdate},
		{name: "delete", input: "delete", want: ActionDelete},
		{name: "uppercase", input: "READ", want: ActionRead},
		{name: "mixed case with spaces", input: "  Update ", want: ActionUpdate},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "write", wantErr: true},
		{name: "composed", input: "read,update", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAction(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestActionForMethod(t *testing.T) {
	tests := []struct {
		method string
		want   Action
		ok     bool
	}{
		{http.MethodGet, ActionRead, true},
		{http.MethodHead, ActionRead, true},
		{http.MethodOptions, ActionRead, true},
		{http.MethodPost, ActionCreate, true},
		{http.MethodPut, ActionUpdate, true},
		{http.MethodPatch, ActionUpdate, true},
		{http.MethodDelete, ActionDelete, true},
		{http.MethodConnect, "", false},
		{"TRACE", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got, ok := ActionForMethod(tt.method)
			if ok != tt.ok {
				t.Fatalf("ActionForMethod(%q) ok = %v, want %v", tt.method, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ActionForMethod(%q) = %q, want %q", tt.method, got, tt.want)
			}
		})
	}
}

func TestActionValid(t *testing.T) {
	for _, a := range ValidActions {
		if !a.Valid() {
			t.Errorf("action %q should be valid", a)
		}
	}
	if Action("admin").Valid() {
		t.Error("action \"admin\" should not be valid")
	}
}
