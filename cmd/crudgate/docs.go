// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Package main provides the Crudgate HTTP server
//
// Crudgate is a role-based CRUD authorization service. It stores roles
// and per-resource permission grants and answers allow/deny checks.
//
// @title Crudgate API
// @version 1.0
// @description Role-based CRUD authorization service
// @description
// @description ## Model
// @description
// @description A permission ties a role to a named policy (a resource class such as
// @description `articles`) and carries four independent grants: create, read, update
// @description and delete. The wildcard policy `*` matches any policy name, but a
// @description specific permission always wins over the wildcard.
// @description
// @description ## Authentication
// @description
// @description Admin endpoints require a JWT bearer token (AUTH_MODE=jwt) or HTTP
// @description basic credentials (AUTH_MODE=basic). Use `/api/v1/auth/login` to
// @description obtain a token in jwt mode.
// @description
// @description ## Rate Limiting
// @description
// @description Check endpoints allow 1000 requests per minute per IP; admin
// @description endpoints allow 30. Rate limit headers are included in responses.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {},
// @description     "request_id": "..."
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/crudgate/crudgate/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8086
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token. Obtain via /api/v1/auth/login endpoint.
//
// @tag.name Check
// @tag.description Authorization decision endpoints
//
// @tag.name Roles
// @tag.description Role management (admin)
//
// @tag.name Permissions
// @tag.description Permission management (admin)
//
// @tag.name Audit
// @tag.description Administrative change audit trail (admin)
//
// @tag.name Auth
// @tag.description Authentication endpoints
//
// @tag.name Realtime
// @tag.description Real-time WebSocket stream of authorization decisions
//
// @tag.name Core
// @tag.description Health and liveness endpoints
package main
