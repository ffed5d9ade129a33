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

// Check evaluates one authorization decision.
//
//	POST /api/v1/check
//	{"role": "editor", "policy": "articles", "action": "update"}
//
// The response carries the full decision including which record kind
// matched. A denial is a successful request (200 with allowed=false);
// error statuses are reserved for requests the engine cannot answer.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CheckRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationError(err.Error(), validationDetails(err))
		return
	}

	action, err := models.ParseAction(req.Action)
	if err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeInvalidAction, err.Error())
		return
	}

	decision, err := h.engine.Check(r.Context(), req.Role, req.Policy, action)
	if err != nil {
		h.writeCheckError(rw, r, err)
		return
	}

	decision.RequestID = logging.RequestIDFromContext(r.Context())
	rw.Success(decision)
}

// BatchCheck evaluates up to 100 decisions in one round trip. Each
// check is independent; an unanswerable check fails the whole batch so
// callers never act on a partial result set.
//
//	POST /api/v1/check/batch
func (h *Handler) BatchCheck(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BatchCheckRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationError(err.Error(), validationDetails(err))
		return
	}

	decisions := make([]*models.Decision, 0, len(req.Checks))
	for _, check := range req.Checks {
		action, err := models.ParseAction(check.Action)
		if err != nil {
			rw.Error(http.StatusBadRequest, ErrCodeInvalidAction, err.Error())
			return
		}

		decision, err := h.engine.Check(r.Context(), check.Role, check.Policy, action)
		if err != nil {
			h.writeCheckError(rw, r, err)
			return
		}
		decisions = append(decisions, decision)
	}

	rw.SuccessList(decisions, len(decisions))
}

// writeCheckError maps engine errors to HTTP statuses. A policy that
// cannot be resolved in strict mode is a configuration problem on the
// caller's side (404); an unreachable store is a 503 and the caller
// must treat it as a deny.
func (h *Handler) writeCheckError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAction):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidAction, err.Error())
	case errors.Is(err, engine.ErrPolicyNotFound):
		rw.Error(http.StatusNotFound, ErrCodePolicyNotFound, err.Error())
	case errors.Is(err, engine.ErrStoreUnavailable):
		logging.CtxErr(r.Context(), err).Msg("Check failed: policy store unavailable")
		rw.ServiceUnavailable("policy store unavailable")
	default:
		logging.CtxErr(r.Context(), err).Msg("Check failed")
		rw.InternalError("check failed")
	}
}

// Login exchanges admin credentials for a bearer token.
//
//	POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.jwt == nil || h.basic == nil {
		rw.NotFound("token issuance is not enabled")
		return
	}

	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationError(err.Error(), validationDetails(err))
		return
	}

	if !h.basic.ValidatePassword(req.Username, req.Password) {
		rw.Unauthorized("invalid username or password")
		return
	}

	token, err := h.jwt.GenerateToken(req.Username, auth.AdminRole)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to generate token")
		rw.InternalError("failed to generate token")
		return
	}

	rw.Success(map[string]string{
		"token": token,
		"role":  auth.AdminRole,
	})
}
