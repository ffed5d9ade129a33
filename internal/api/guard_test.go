// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crudgate/crudgate/internal/auth"
	"github.com/crudgate/crudgate/internal/config"
	"github.com/crudgate/crudgate/internal/engine"
)

func guardedRequest(t *testing.T, env *testEnv, policy, method string, subject *auth.Subject) *httptest.ResponseRecorder {
	t.Helper()

	var called bool
	handler := Guard(env.engine, policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/articles", nil)
	if subject != nil {
		req = req.WithContext(auth.ContextWithSubject(req.Context(), subject))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK && !called {
		t.Fatal("200 response without reaching inner handler")
	}
	return rec
}

func TestGuardAllowsGrantedVerb(t *testing.T) {
	env := newTestEnv(t, engine.Config{})
	seedEditor(t, env)

	subject := &auth.Subject{Username: "alice", Role: "editor"}
	rec := guardedRequest(t, env, "articles", http.MethodGet, subject)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestGuardDeniesUngrantedVerb(t *testing.T) {
	env := newTestEnv(t, engine.Config{})
	seedEditor(t, env)

	// editor has no delete grant on articles
	subject := &auth.Subject{Username: "alice", Role: "editor"}
	rec := guardedRequest(t, env, "articles", http.MethodDelete, subject)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGuardRequiresSubject(t *testing.T) {
	env := newTestEnv(t, engine.Config{})
	seedEditor(t, env)

	rec := guardedRequest(t, env, "articles", http.MethodGet, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardStrictModeUnknownPolicyDenies(t *testing.T) {
	env := newTestEnv(t, engine.Config{StrictMode: true})
	seedEditor(t, env)

	// strict-mode resolution failure surfaces as a plain 403, not 404
	subject := &auth.Subject{Username: "alice", Role: "editor"}
	rec := guardedRequest(t, env, "videos", http.MethodGet, subject)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGuardDefaultPolicySubstitution(t *testing.T) {
	env := newTestEnv(t, engine.Config{DefaultPolicyName: "articles"})
	seedEditor(t, env)

	subject := &auth.Subject{Username: "alice", Role: "editor"}
	rec := guardedRequest(t, env, "", http.MethodGet, subject)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 via default policy", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	authenticator, err := auth.NewAuthenticator(&config.SecurityConfig{
		AuthMode:      "basic",
		AdminUsername: "admin",
		AdminPassword: "correct horse",
	})
	if err != nil {
		t.Fatalf("auth.NewAuthenticator: %v", err)
	}

	handler := RequireAdmin(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		subject *auth.Subject
		want    int
	}{
		{"admin allowed", &auth.Subject{Username: "admin", Role: auth.AdminRole}, http.StatusOK},
		{"non-admin forbidden", &auth.Subject{Username: "bob", Role: "editor"}, http.StatusForbidden},
		{"no subject unauthorized", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/roles", nil)
			if tt.subject != nil {
				req = req.WithContext(auth.ContextWithSubject(req.Context(), tt.subject))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
