// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"errors"
	"net/http"

	"github.com/crudgate/crudgate/internal/auth"
	"github.com/crudgate/crudgate/internal/engine"
	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/models"
)

// Guard protects resource routes with engine decisions. The HTTP verb
// maps to the CRUD action (GET=read, POST=create, PUT/PATCH=update,
// DELETE=delete) and the caller's role comes from the authenticated
// subject. An empty policy name lets the engine substitute its default.
//
// Failure mapping follows the engine's fail-closed contract:
//   - no authenticated subject: 401
//   - decision denied: 403
//   - policy unresolvable in strict mode: 403 (the caller learns
//     nothing about which policies exist)
//   - store unavailable: 503
func Guard(eng *engine.Engine, policy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := NewResponseWriter(w, r)

			subject := auth.SubjectFromContext(r.Context())
			if subject == nil {
				rw.Unauthorized("authentication required")
				return
			}

			action, ok := models.ActionForMethod(r.Method)
			if !ok {
				rw.Error(http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed")
				return
			}

			decision, err := eng.Check(r.Context(), subject.Role, policy, action)
			if err != nil {
				writeGuardError(rw, r, err)
				return
			}

			if !decision.Allowed {
				logging.Ctx(r.Context()).Debug().
					Str("role", subject.Role).
					Str("policy", decision.Policy).
					Str("action", string(action)).
					Msg("Request denied by policy")
				rw.Forbidden("access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeGuardError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrPolicyNotFound):
		rw.Forbidden("access denied")
	case errors.Is(err, engine.ErrStoreUnavailable):
		logging.CtxErr(r.Context(), err).Msg("Guard check failed: policy store unavailable")
		rw.ServiceUnavailable("policy store unavailable")
	default:
		logging.CtxErr(r.Context(), err).Msg("Guard check failed")
		rw.InternalError("authorization check failed")
	}
}
