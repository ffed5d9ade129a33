// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/crudgate/crudgate/internal/auth"
	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so the auth and metrics middleware
// work with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires handlers, authentication, and middleware into the HTTP
// route tree.
type Router struct {
	handler       *Handler
	authenticator *auth.Authenticator
	chiMW         *ChiMiddleware
}

// NewRouter creates a router. A nil middleware config uses secure
// defaults.
func NewRouter(handler *Handler, authenticator *auth.Authenticator, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		authenticator: authenticator,
		chiMW:         NewChiMiddleware(mwConfig),
	}
}

// SetupChi builds the full route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMW.CORS())

	// Health endpoints. Permissive rate limiting so monitoring can
	// probe frequently; no authentication.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMW.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Token issuance. Strict rate limiting against brute force.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMW.RateLimitAuth())
		r.Use(APISecurityHeaders())
		r.Post("/login", router.handler.Login)
	})

	// Decision checks. This is the hot path: every guarded request in
	// a caller's system produces one check.
	r.Route("/api/v1/check", func(r chi.Router) {
		r.Use(router.chiMW.RateLimitCheck())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.authenticator.Middleware))

		r.Post("/", router.handler.Check)
		r.Post("/batch", router.handler.BatchCheck)
	})

	// Admin surface: roles, permissions, audit log. Requires the admin
	// role on top of authentication.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMW.RateLimitAdmin())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.authenticator.Middleware))
		r.Use(RequireAdmin(router.authenticator))

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", router.handler.ListRoles)
			r.Post("/", router.handler.CreateRole)
			r.Get("/{name}", router.handler.GetRole)
			r.Put("/{name}", router.handler.UpdateRole)
			r.Delete("/{name}", router.handler.DeleteRole)
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Get("/", router.handler.ListPermissions)
			r.Post("/", router.handler.CreatePermission)
			r.Get("/{id}", router.handler.GetPermission)
			r.Put("/{id}", router.handler.UpdatePermission)
			r.Delete("/{id}", router.handler.DeletePermission)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(router.chiMW.RateLimitAudit())
			r.Get("/", router.handler.ListAuditEntries)
			r.Get("/stats", router.handler.AuditStats)
		})
	})

	// Decision stream over websocket.
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.chiMW.RateLimit())
		r.Use(chiMiddleware(router.authenticator.Middleware))
		r.Get("/", router.handler.WebSocket)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	return r
}

// RequireAdmin rejects requests whose authenticated subject does not
// carry the admin role. Applied after the authentication middleware.
// In "none" auth mode there is no subject and the admin surface is
// open; that mode exists for development only.
func RequireAdmin(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.SubjectFromContext(r.Context())
			if subject == nil {
				if authenticator.Mode() == "none" {
					next.ServeHTTP(w, r)
					return
				}
				NewResponseWriter(w, r).Unauthorized("authentication required")
				return
			}

			if subject.Role != auth.AdminRole {
				logging.Ctx(r.Context()).Warn().
					Str("username", subject.Username).
					Str("role", subject.Role).
					Str("path", r.URL.Path).
					Msg("Admin access denied")
				NewResponseWriter(w, r).Forbidden("admin role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
