// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crudgate/crudgate/internal/config"
)

func testSecurityConfig(mode string) *config.SecurityConfig {
	return &config.SecurityConfig{
		AuthMode:       mode,
		JWTSecret:      strings.Repeat("s", 32),
		SessionTimeout: time.Hour,
		AdminUsername:  "admin",
		AdminPassword:  "changeme1",
	}
}

func TestJWTRoundTrip(t *testing.T) {
	mgr, err := NewJWTManager(testSecurityConfig("jwt"))
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := mgr.GenerateToken("alice", "editor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "alice" || claims.Role != "editor" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	mgr, err := NewJWTManager(testSecurityConfig("jwt"))
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := mgr.GenerateToken("alice", "editor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := mgr.ValidateToken(tampered); err == nil {
		t.Error("tampered token should be rejected")
	}
}

func TestJWTRejectsUnsignedToken(t *testing.T) {
	mgr, err := NewJWTManager(testSecurityConfig("jwt"))
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "mallory", Role: "admin"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing unsigned token: %v", err)
	}

	if _, err := mgr.ValidateToken(token); err == nil {
		t.Error("alg=none token should be rejected")
	}
}

func TestJWTRequiresSecret(t *testing.T) {
	cfg := testSecurityConfig("jwt")
	cfg.JWTSecret = ""
	if _, err := NewJWTManager(cfg); err == nil {
		t.Error("empty secret should be rejected")
	}
}

func TestBasicAuthValidation(t *testing.T) {
	mgr, err := NewBasicAuthManager("admin", "changeme1")
	if err != nil {
		t.Fatalf("NewBasicAuthManager: %v", err)
	}

	header := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"valid credentials", header("admin", "changeme1"), false},
		{"wrong password", header("admin", "wrong1234"), true},
		{"wrong username", header("root", "changeme1"), true},
		{"not basic", "Bearer abc", true},
		{"garbage base64", "Basic !!!", true},
		{"missing colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("admin")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.ValidateCredentials(tt.header)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCredentials: err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBasicAuthRejectsWeakPassword(t *testing.T) {
	if _, err := NewBasicAuthManager("admin", "short"); err == nil {
		t.Error("short password should be rejected")
	}
}

func TestMiddlewareJWT(t *testing.T) {
	authn, err := NewAuthenticator(testSecurityConfig("jwt"))
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	var gotSubject *Subject
	handler := authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No credentials.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d, want 401", rec.Code)
	}

	// Valid token.
	token, err := authn.jwt.GenerateToken("alice", "editor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", rec.Code)
	}
	if gotSubject == nil || gotSubject.Username != "alice" || gotSubject.Role != "editor" {
		t.Errorf("subject = %+v", gotSubject)
	}
}

func TestMiddlewareBasic(t *testing.T) {
	authn, err := NewAuthenticator(testSecurityConfig("basic"))
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	var gotSubject *Subject
	handler := authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("401 should carry a WWW-Authenticate challenge")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("admin", "changeme1")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid credentials: status = %d, want 200", rec.Code)
	}
	if gotSubject == nil || gotSubject.Role != AdminRole {
		t.Errorf("subject = %+v", gotSubject)
	}
}

func TestMiddlewareNone(t *testing.T) {
	authn, err := NewAuthenticator(testSecurityConfig("none"))
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	handler := authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		if SubjectFromContext(r.Context()) != nil {
			t.Error("none mode should not attach a subject")
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("none mode: status = %d, want 200", rec.Code)
	}
}
