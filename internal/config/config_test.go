// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package config

import (
	"strings"
	"testing"
	"time"
)

// validTestConfig returns a configuration that passes validation.
// Tests mutate single fields to probe individual rules.
func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	cfg.Database.Path = ":memory:"
	return cfg
}

func TestDefaultsValidateWithSecret(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with secret should validate: %v", err)
	}
}

func TestPolicyDefaults(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Policy.DefaultPolicyName != "resource" {
		t.Errorf("DefaultPolicyName = %q, want %q", cfg.Policy.DefaultPolicyName, "resource")
	}
	if cfg.Policy.CaseSensitive {
		t.Error("CaseSensitive should default to false")
	}
	if !cfg.Policy.StrictMode {
		t.Error("StrictMode should default to true")
	}
}

func TestValidateRejectsEmptyDefaultPolicyName(t *testing.T) {
	tests := []string{"", "   "}
	for _, name := range tests {
		cfg := validTestConfig()
		cfg.Policy.DefaultPolicyName = name
		if err := cfg.Validate(); err == nil {
			t.Errorf("DefaultPolicyName=%q should fail validation at startup", name)
		}
	}
}

func TestValidateSecurity(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "jwt mode with short secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "short" },
			wantErr: true,
		},
		{
			name: "basic mode without credentials",
			mutate: func(c *Config) {
				c.Security.AuthMode = "basic"
				c.Security.AdminUsername = ""
			},
			wantErr: true,
		},
		{
			name: "basic mode with credentials",
			mutate: func(c *Config) {
				c.Security.AuthMode = "basic"
				c.Security.AdminUsername = "admin"
				c.Security.AdminPassword = "changeme1"
			},
		},
		{
			name: "basic mode with weak password",
			mutate: func(c *Config) {
				c.Security.AuthMode = "basic"
				c.Security.AdminUsername = "admin"
				c.Security.AdminPassword = "short"
			},
			wantErr: true,
		},
		{
			name:   "none mode in development",
			mutate: func(c *Config) { c.Security.AuthMode = "none" },
		},
		{
			name: "none mode in production",
			mutate: func(c *Config) {
				c.Security.AuthMode = "none"
				c.Server.Environment = "production"
			},
			wantErr: true,
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Security.AuthMode = "oauth" },
			wantErr: true,
		},
		{
			name: "rate limit window must be positive",
			mutate: func(c *Config) {
				c.Security.RateLimitWindow = 0
			},
			wantErr: true,
		},
		{
			name: "rate limit checks skipped when disabled",
			mutate: func(c *Config) {
				c.Security.RateLimitDisabled = true
				c.Security.RateLimitWindow = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCacheAndEvents(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "badger backend needs path",
			mutate: func(c *Config) {
				c.Cache.Backend = "badger"
				c.Cache.Path = ""
			},
			wantErr: true,
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Cache.Backend = "redis" },
			wantErr: true,
		},
		{
			name:   "cache disabled ignores ttl",
			mutate: func(c *Config) { c.Cache.Backend = "none"; c.Cache.TTL = 0 },
		},
		{
			name:    "zero ttl with memory backend",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: true,
		},
		{
			name: "events enabled without url",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.URL = ""
			},
			wantErr: true,
		},
		{
			name: "events enabled with embedded server",
			mutate: func(c *Config) {
				c.Events.Enabled = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"DEFAULT_POLICY_NAME", "policy.default_policy_name"},
		{"CASE_SENSITIVE_POLICIES", "policy.case_sensitive"},
		{"STRICT_MODE", "policy.strict_mode"},
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"CACHE_BACKEND", "cache.backend"},
		{"NATS_URL", "events.url"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DEFAULT_POLICY_NAME", "endpoint")
	t.Setenv("STRICT_MODE", "false")
	t.Setenv("CASE_SENSITIVE_POLICIES", "true")
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))
	t.Setenv("HTTP_TIMEOUT", "45s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Policy.DefaultPolicyName != "endpoint" {
		t.Errorf("DefaultPolicyName = %q, want %q", cfg.Policy.DefaultPolicyName, "endpoint")
	}
	if cfg.Policy.StrictMode {
		t.Error("StrictMode should be overridden to false")
	}
	if !cfg.Policy.CaseSensitive {
		t.Error("CaseSensitive should be overridden to true")
	}
	if cfg.Server.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Server.Timeout)
	}
}

func TestLoadRejectsEmptyDefaultPolicyNameFromEnv(t *testing.T) {
	t.Setenv("DEFAULT_POLICY_NAME", " ")
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected startup error for empty DEFAULT_POLICY_NAME")
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}
