// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Package config provides centralized configuration for Crudgate.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority last:
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// The Config struct is immutable after Load() and safe for concurrent
// read access. Validation runs as part of Load(); a configuration that
// cannot support correct authorization decisions (for example an empty
// DEFAULT_POLICY_NAME) is rejected at startup, never at request time.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Policy   PolicyConfig   `koanf:"policy"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Cache    CacheConfig    `koanf:"cache"`
	Events   EventsConfig   `koanf:"events"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PolicyConfig governs the access decision engine.
//
// Environment Variables:
//   - DEFAULT_POLICY_NAME: substituted when a check supplies no policy
//     name (default: "resource"). Must be non-empty.
//   - CASE_SENSITIVE_POLICIES: compare policy names case-sensitively
//     (default: false; names are folded to lowercase)
//   - STRICT_MODE: fail a check with a policy-not-found error instead
//     of denying silently when no record exists (default: true)
type PolicyConfig struct {
	// DefaultPolicyName is substituted when no policy name is requested
	DefaultPolicyName string `koanf:"default_policy_name" validate:"required"`

	// CaseSensitive disables lowercase folding of policy names
	CaseSensitive bool `koanf:"case_sensitive"`

	// StrictMode surfaces unresolvable policies as errors instead of denials
	StrictMode bool `koanf:"strict_mode"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP listen port
	Port int `koanf:"port" validate:"gt=0,lte=65535"`

	// Host is the listen address
	Host string `koanf:"host"`

	// Timeout bounds request read/write and graceful shutdown
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development" or "production"; production enables
	// stricter credential checks
	Environment string `koanf:"environment" validate:"oneof=development production"`
}

// DatabaseConfig holds DuckDB configuration for the policy record store.
type DatabaseConfig struct {
	// Path is the database file path (":memory:" for tests)
	Path string `koanf:"path" validate:"required"`

	// MaxMemory caps DuckDB memory usage (e.g. "1GB")
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count (0 = runtime.NumCPU())
	Threads int `koanf:"threads"`
}

// SecurityConfig holds authentication and rate limiting settings for
// the HTTP surface.
//
// AuthMode selects how callers are resolved to roles:
//   - "jwt": bearer tokens carrying a role claim (JWT_SECRET required)
//   - "basic": HTTP basic auth for the admin surface only
//   - "none": no authentication (development only)
type SecurityConfig struct {
	AuthMode string `koanf:"auth_mode" validate:"oneof=jwt basic none"`

	// JWTSecret signs and verifies bearer tokens (HS256, 32+ chars)
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTimeout is the issued token lifetime
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// AdminUsername and AdminPassword guard the admin API
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`

	// Rate limiting (per client IP)
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CORSOrigins lists allowed origins for browser clients
	CORSOrigins []string `koanf:"cors_origins"`
}

// CacheConfig holds decision cache settings.
//
// Backend selects the cache implementation:
//   - "memory": in-process TTL map, cleared on restart
//   - "badger": persistent BadgerDB store surviving restarts
//   - "none": caching disabled, every check reads the store
type CacheConfig struct {
	Backend string `koanf:"backend" validate:"oneof=memory badger none"`

	// TTL is how long a cached verdict stays valid
	TTL time.Duration `koanf:"ttl"`

	// Path is the BadgerDB directory (badger backend only)
	Path string `koanf:"path"`
}

// EventsConfig holds NATS JetStream settings for permission-change
// events. When enabled, admin mutations publish change events and a
// subscriber invalidates decision caches across instances.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server address
	URL string `koanf:"url"`

	// EmbeddedServer runs an in-process NATS server for standalone
	// deployments
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory (embedded server)
	StoreDir string `koanf:"store_dir"`

	// StreamName is the JetStream stream holding change events
	StreamName string `koanf:"stream_name"`

	// DurableName identifies the cache-invalidation consumer
	DurableName string `koanf:"durable_name"`

	// QueueGroup load-balances subscribers of one instance group
	QueueGroup string `koanf:"queue_group"`

	// StreamMaxAge bounds event retention
	StreamMaxAge time.Duration `koanf:"stream_max_age"`
}

// AuditConfig holds decision audit logging settings.
type AuditConfig struct {
	Enabled bool `koanf:"enabled"`

	// LogAllowed logs permitted decisions (noisy, off by default)
	LogAllowed bool `koanf:"log_allowed"`

	// LogDenied logs denied decisions
	LogDenied bool `koanf:"log_denied"`

	// SampleRate samples allowed-decision logging (0.0-1.0)
	SampleRate float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`

	// BufferSize is the async event channel capacity
	BufferSize int `koanf:"buffer_size"`

	// FlushInterval drains buffered events at least this often
	FlushInterval time.Duration `koanf:"flush_interval"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn, error
	Level string `koanf:"level"`

	// Format is "json" or "console"
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes file:line in log output
	Caller bool `koanf:"caller"`
}

// Load loads, layers, and validates the full configuration.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
