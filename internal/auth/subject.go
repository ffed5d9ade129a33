// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package auth

import "context"

// Subject is the authenticated caller of the admin API.
type Subject struct {
	// Username is the caller's login name
	Username string `json:"username"`

	// Role is the caller's role, taken from the token claims or fixed
	// to AdminRole for basic auth
	Role string `json:"role"`
}

// AdminRole is the role granted to the basic-auth admin account.
const AdminRole = "admin"

type subjectContextKey struct{}

// ContextWithSubject attaches an authenticated subject to the context.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, s)
}

// SubjectFromContext returns the authenticated subject, or nil when the
// request was not authenticated (AUTH_MODE=none).
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectContextKey{}).(*Subject)
	return s
}
