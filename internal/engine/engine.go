// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Package engine implements the authorization decision engine.
//
// A check maps (role, policy, action) to a boolean by resolving the
// governing permission record: the exact (role, policy) record if one
// exists, otherwise the role's "*" wildcard record. The stored boolean
// is returned verbatim; there is no inheritance or composition between
// the four CRUD actions.
//
// The engine holds no mutable policy state of its own. Every piece of
// configuration influencing a decision is passed explicitly at
// construction, and two checks with the same inputs against the same
// store contents always produce the same answer.
//
// Store reads go through a circuit breaker and fail closed: a check
// that cannot consult the store returns an error, never a grant.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/crudgate/crudgate/internal/database"
	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/models"
)

// Engine errors.
var (
	// ErrPolicyNotFound is returned in strict mode when neither a
	// specific nor a wildcard record exists for an existing role.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrInvalidAction is returned for actions outside create, read,
	// update, delete.
	ErrInvalidAction = errors.New("invalid action")

	// ErrStoreUnavailable is returned when the policy store cannot be
	// consulted. Callers must treat it as a denial.
	ErrStoreUnavailable = errors.New("policy store unavailable")
)

// Denial reasons used in metrics and audit events.
const (
	reasonNoRole         = "unknown_role"
	reasonNoRecord       = "no_matching_record"
	reasonActionDenied   = "action_not_granted"
	reasonInvalidAction  = "invalid_action"
	reasonStoreFailure   = "store_failure"
	reasonPolicyNotFound = "policy_not_found"
)

// PolicyStore is the read surface the engine needs. *database.DB
// satisfies it; tests substitute fakes.
type PolicyStore interface {
	ResolvePermission(ctx context.Context, roleName, policyName string, caseSensitive bool) (*models.Permission, error)
	GetRole(ctx context.Context, name string) (*models.Role, error)
}

// Config carries the decision-relevant settings. All of them are
// explicit constructor inputs; the engine never reads ambient state.
type Config struct {
	// DefaultPolicyName substitutes for an absent requested policy
	// name. Must be non-empty.
	DefaultPolicyName string

	// CaseSensitivePolicies disables lowercase folding of policy names
	// when true.
	CaseSensitivePolicies bool

	// StrictMode surfaces missing policies as ErrPolicyNotFound instead
	// of a silent deny.
	StrictMode bool
}

// Engine evaluates authorization checks against the policy store.
type Engine struct {
	config  Config
	store   PolicyStore
	cache   DecisionCache
	breaker *gobreaker.CircuitBreaker[*models.Permission]
	audit   *AuditLogger
	hooks   []func(models.Decision)
}

// New creates a decision engine. The cache may be NewNopCache() to
// disable caching; auditCfg nil disables decision auditing.
func New(store PolicyStore, cache DecisionCache, cfg Config, auditCfg *AuditLoggerConfig) (*Engine, error) {
	if store == nil {
		return nil, errors.New("policy store is required")
	}
	if strings.TrimSpace(cfg.DefaultPolicyName) == "" {
		return nil, errors.New("default policy name must not be empty")
	}
	if cache == nil {
		cache = NewNopCache()
	}

	var audit *AuditLogger
	if auditCfg != nil && auditCfg.Enabled {
		audit = NewAuditLogger(auditCfg)
	}

	e := &Engine{
		config: cfg,
		store:  store,
		cache:  cache,
		audit:  audit,
	}
	e.breaker = gobreaker.NewCircuitBreaker[*models.Permission](gobreaker.Settings{
		Name:        "policy-store",
		MaxRequests: 3,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Not-found is a valid answer from a healthy store, not a
		// failure that should trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, database.ErrPermissionNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			BreakerState.Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Policy store circuit breaker state changed")
		},
	})

	return e, nil
}

// CaseSensitive reports whether policy names compare case-sensitively.
// The admin surface uses this so create-time uniqueness agrees with
// resolution.
func (e *Engine) CaseSensitive() bool {
	return e.config.CaseSensitivePolicies
}

// Close releases the cache and flushes the audit buffer.
func (e *Engine) Close() error {
	if e.audit != nil {
		e.audit.Close()
	}
	return e.cache.Close()
}

// AddDecisionHook registers a callback invoked for every completed
// decision. Hooks must be registered before the engine serves checks;
// they run synchronously on the check path and must not block.
func (e *Engine) AddDecisionHook(fn func(models.Decision)) {
	e.hooks = append(e.hooks, fn)
}

// Check evaluates whether the role may perform the action on the
// requested policy. requestedPolicy may be empty, in which case the
// configured default policy name is used.
//
// An unknown role denies unconditionally. A missing policy for an
// existing role returns ErrPolicyNotFound in strict mode and denies
// silently otherwise. Store failures return ErrStoreUnavailable and
// must be treated as denials.
func (e *Engine) Check(ctx context.Context, role, requestedPolicy string, action models.Action) (*models.Decision, error) {
	start := time.Now()

	if !action.Valid() {
		RecordDenial(role, string(action), reasonInvalidAction)
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	policy := e.NormalizePolicyName(requestedPolicy)
	decision := &models.Decision{
		Role:            role,
		Policy:          policy,
		RequestedPolicy: strings.TrimSpace(requestedPolicy),
		Action:          action,
		Match:           models.MatchNone,
		RequestID:       logging.RequestIDFromContext(ctx),
	}

	// A caller with no role is denied without consulting the store.
	if role == "" {
		return e.finish(decision, start, reasonNoRole), nil
	}

	if cached, ok := e.cache.Get(role, policy, action); ok {
		decision.Allowed = cached.Allowed
		decision.Match = cached.Match
		decision.CacheHit = true
		return e.finish(decision, start, cachedReason(cached)), nil
	}

	perm, err := e.breaker.Execute(func() (*models.Permission, error) {
		return e.store.ResolvePermission(ctx, role, policy, e.config.CaseSensitivePolicies)
	})
	if err != nil {
		return e.handleResolveError(ctx, decision, start, err)
	}

	decision.Allowed = perm.Allows(action)
	if perm.IsWildcard() {
		decision.Match = models.MatchWildcard
	} else {
		decision.Match = models.MatchSpecific
	}

	e.cache.Set(role, policy, action, &CachedDecision{
		Allowed: decision.Allowed,
		Match:   decision.Match,
	})

	reason := ""
	if !decision.Allowed {
		reason = reasonActionDenied
	}
	return e.finish(decision, start, reason), nil
}

// handleResolveError classifies a failed store resolution. Only the
// not-found case can still produce a verdict; everything else fails
// closed with an error.
func (e *Engine) handleResolveError(ctx context.Context, decision *models.Decision, start time.Time, err error) (*models.Decision, error) {
	if errors.Is(err, database.ErrPermissionNotFound) {
		return e.handleNotFound(ctx, decision, start)
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		RecordStoreError("breaker_open")
		RecordDenial(decision.Role, string(decision.Action), reasonStoreFailure)
		return nil, fmt.Errorf("%w: circuit breaker open", ErrStoreUnavailable)
	}

	RecordStoreError("query_error")
	RecordDenial(decision.Role, string(decision.Action), reasonStoreFailure)
	return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// handleNotFound distinguishes an unknown role from a known role with
// no applicable record. The former always denies; the latter depends
// on strict mode.
func (e *Engine) handleNotFound(ctx context.Context, decision *models.Decision, start time.Time) (*models.Decision, error) {
	_, roleErr := e.store.GetRole(ctx, decision.Role)
	switch {
	case errors.Is(roleErr, database.ErrRoleNotFound):
		e.cache.Set(decision.Role, decision.Policy, decision.Action, &CachedDecision{Match: models.MatchNone})
		return e.finish(decision, start, reasonNoRole), nil
	case roleErr != nil:
		RecordStoreError("role_lookup_error")
		RecordDenial(decision.Role, string(decision.Action), reasonStoreFailure)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, roleErr)
	}

	if e.config.StrictMode {
		PolicyNotFoundTotal.Inc()
		RecordDenial(decision.Role, string(decision.Action), reasonPolicyNotFound)
		return nil, fmt.Errorf("%w: no record for role %q and policy %q", ErrPolicyNotFound, decision.Role, decision.Policy)
	}

	e.cache.Set(decision.Role, decision.Policy, decision.Action, &CachedDecision{Match: models.MatchNone})
	return e.finish(decision, start, reasonNoRecord), nil
}

// finish stamps the decision, records metrics and audit, and notifies
// hooks.
func (e *Engine) finish(decision *models.Decision, start time.Time, reason string) *models.Decision {
	decision.Timestamp = time.Now()
	duration := time.Since(start)

	RecordDecision(decision.Role, string(decision.Action), decision.Allowed, duration, decision.CacheHit)
	if !decision.Allowed && reason != "" {
		RecordDenial(decision.Role, string(decision.Action), reason)
	}

	if e.audit != nil {
		e.audit.LogDecision(&DecisionEvent{
			Decision: *decision,
			Reason:   reason,
			Duration: duration,
		})
	}

	for _, hook := range e.hooks {
		hook(*decision)
	}

	return decision
}

// cachedReason reproduces the denial reason for a cached verdict.
func cachedReason(cached *CachedDecision) string {
	if cached.Allowed {
		return ""
	}
	if cached.Match == models.MatchNone {
		return reasonNoRecord
	}
	return reasonActionDenied
}

// InvalidateRole drops all cached decisions for a role. Called after
// every admin mutation touching the role.
func (e *Engine) InvalidateRole(role string) {
	e.cache.InvalidateRole(role)
	RecordCacheInvalidation("role_change")
}

// InvalidateAll drops the entire decision cache.
func (e *Engine) InvalidateAll() {
	e.cache.Clear()
	RecordCacheInvalidation("full_flush")
}

// AuditStats exposes the audit logger state for the health endpoint.
func (e *Engine) AuditStats() AuditLoggerStats {
	return e.audit.Stats()
}
