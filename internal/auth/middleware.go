// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

/*
middleware.go - Authentication Middleware

Key Operations:
  - NewAuthenticator: Build the authenticator for the configured mode
    (jwt, basic, or none)
  - Middleware: Wrap a handler, rejecting unauthenticated requests and
    attaching the Subject to the request context

The middleware authenticates callers of the admin API; the decision
engine itself never sees credentials, only role names.
*/

package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/crudgate/crudgate/internal/config"
	"github.com/crudgate/crudgate/internal/logging"
)

// Authenticator validates request credentials per the configured mode.
type Authenticator struct {
	mode  string
	jwt   *JWTManager
	basic *BasicAuthManager
}

// NewAuthenticator builds the authenticator for the configured auth
// mode. AUTH_MODE=none returns an authenticator that passes every
// request through with no subject.
func NewAuthenticator(cfg *config.SecurityConfig) (*Authenticator, error) {
	a := &Authenticator{mode: cfg.AuthMode}

	switch cfg.AuthMode {
	case "jwt":
		mgr, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		a.jwt = mgr
	case "basic":
		mgr, err := NewBasicAuthManager(cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		a.basic = mgr
	case "none":
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}

	return a, nil
}

// Mode returns the configured auth mode: "jwt", "basic", or "none".
func (a *Authenticator) Mode() string {
	return a.mode
}

// Middleware authenticates the request and stores the subject in the
// context. Failures get a 401 with a JSON body.
func (a *Authenticator) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.mode == "none" {
			next(w, r)
			return
		}

		subject, err := a.authenticate(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Authentication failed")
			a.writeUnauthorized(w)
			return
		}

		next(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	}
}

// authenticate resolves the request credentials to a subject.
func (a *Authenticator) authenticate(r *http.Request) (*Subject, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("missing authorization header")
	}

	switch a.mode {
	case "jwt":
		token := authHeader
		if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			token = authHeader[len("Bearer "):]
		}
		claims, err := a.jwt.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &Subject{Username: claims.Username, Role: claims.Role}, nil

	case "basic":
		username, err := a.basic.ValidateCredentials(authHeader)
		if err != nil {
			return nil, err
		}
		return &Subject{Username: username, Role: AdminRole}, nil
	}

	return nil, fmt.Errorf("unknown auth mode %q", a.mode)
}

// writeUnauthorized sends a 401 response with the appropriate
// challenge header.
func (a *Authenticator) writeUnauthorized(w http.ResponseWriter) {
	if a.mode == "basic" && a.basic != nil {
		w.Header().Set("WWW-Authenticate", a.basic.GetWWWAuthenticateHeader())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // best-effort error body
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "unauthorized",
	})
}
