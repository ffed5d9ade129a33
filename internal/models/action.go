// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package models

import (
	"fmt"
	"net/http"
	"strings"
)

// Action is one of the closed set {create, read, update, delete}.
// There are no custom actions and no composition between them: each
// permission boolean is independent and set explicitly by whoever
// manages permission records.
type Action string

// Action constants define the four CRUD actions.
const (
	// ActionCreate maps to the can_create permission boolean.
	ActionCreate Action = "create"

	// ActionRead maps to the can_read permission boolean.
	ActionRead Action = "read"

	// ActionUpdate maps to the can_update permission boolean.
	ActionUpdate Action = "update"

	// ActionDelete maps to the can_delete permission boolean.
	ActionDelete Action = "delete"
)

// ValidActions contains all valid actions for validation and iteration.
var ValidActions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// String returns the action name.
func (a Action) String() string {
	return string(a)
}

// Valid reports whether the action is one of the four CRUD actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// ParseAction converts a string into an Action. Matching is
// case-insensitive so API callers may send "READ" or "Read".
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q (must be one of create, read, update, delete)", s)
	}
	return a, nil
}

// ActionForMethod maps an HTTP verb to the CRUD action it represents.
// GET, HEAD, and OPTIONS are reads; POST creates; PUT and PATCH update;
// DELETE deletes. Unknown verbs return false.
func ActionForMethod(method string) (Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead, true
	case http.MethodPost:
		return ActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate, true
	case http.MethodDelete:
		return ActionDelete, true
	default:
		return "", false
	}
}
