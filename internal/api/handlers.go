// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/crudgate/crudgate/internal/auth"
	"github.com/crudgate/crudgate/internal/database"
	"github.com/crudgate/crudgate/internal/engine"
	"github.com/crudgate/crudgate/internal/events"
	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/models"
)

// ChangePublisher publishes admin change events. The production
// implementation is events.Publisher; a nil publisher disables
// propagation and remote caches converge via TTL.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event *events.ChangeEvent) error
}

// HealthChecker reports whether an external dependency is reachable.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	db        *database.DB
	engine    *engine.Engine
	publisher ChangePublisher
	jwt       *auth.JWTManager
	basic     *auth.BasicAuthManager
	events    HealthChecker
	wsServe   http.HandlerFunc
	started   time.Time
}

// HandlerOption customizes optional Handler dependencies.
type HandlerOption func(*Handler)

// WithPublisher wires the change event publisher.
func WithPublisher(p ChangePublisher) HandlerOption {
	return func(h *Handler) { h.publisher = p }
}

// WithJWT enables the login endpoint for token issuance.
func WithJWT(jwt *auth.JWTManager, basic *auth.BasicAuthManager) HandlerOption {
	return func(h *Handler) {
		h.jwt = jwt
		h.basic = basic
	}
}

// WithEventsHealth wires the events health check into readiness.
func WithEventsHealth(hc HealthChecker) HandlerOption {
	return func(h *Handler) { h.events = hc }
}

// WithWebsocket wires the decision stream upgrade handler.
func WithWebsocket(serve http.HandlerFunc) HandlerOption {
	return func(h *Handler) { h.wsServe = serve }
}

// NewHandler creates the API handler set.
func NewHandler(db *database.DB, eng *engine.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		db:      db,
		engine:  eng,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// actorFrom resolves the acting identity for audit entries. Falls back
// to "system" when the surface runs unauthenticated.
func actorFrom(r *http.Request) string {
	if subject := auth.SubjectFromContext(r.Context()); subject != nil {
		return subject.Username
	}
	return "system"
}

// publishChange propagates an admin mutation to other instances and
// invalidates the local decision cache. Publish failures are logged,
// never surfaced: the mutation already committed.
func (h *Handler) publishChange(r *http.Request, entity, action, roleName, policyName string) {
	h.engine.InvalidateRole(roleName)
	engine.RecordAdminChange(entity, action)

	if h.publisher == nil {
		return
	}

	event := events.NewChangeEvent(entity, action, roleName, policyName, actorFrom(r))
	if err := h.publisher.PublishChange(r.Context(), event); err != nil {
		logging.CtxErr(r.Context(), err).
			Str("entity", entity).
			Str("action", action).
			Str("role", roleName).
			Msg("Failed to publish change event")
	}
}

// recordAudit appends an admin change to the audit log. A failed write
// is logged and the request still succeeds; the mutation is already
// committed and the audit log is advisory.
func (h *Handler) recordAudit(r *http.Request, action, entity, roleName, policyName, detail string) {
	entry := models.NewPermissionAuditEntry(actorFrom(r), action, entity, roleName, policyName)
	entry.Detail = detail
	entry.RequestID = logging.RequestIDFromContext(r.Context())
	entry.IPAddress = r.RemoteAddr

	if err := h.db.InsertAuditEntry(r.Context(), entry); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to record audit entry")
	}
}

// WebSocket upgrades the connection to the decision stream.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsServe == nil {
		NewResponseWriter(w, r).NotFound("decision stream is not enabled")
		return
	}
	h.wsServe(w, r)
}
