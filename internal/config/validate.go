// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// structValidator checks the `validate` tags declared on the config
// structs. A single instance is safe for concurrent use.
var structValidator = validator.New()

// Validate checks the loaded configuration for consistency. It runs
// the struct tag rules first, then the cross-field rules that tags
// cannot express. Load() calls this; callers constructing a Config by
// hand (tests, embedders) should call it themselves.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// An empty default policy name would make checks with no requested
	// name unresolvable. Surface it here, never at request time.
	if strings.TrimSpace(c.Policy.DefaultPolicyName) == "" {
		return fmt.Errorf("DEFAULT_POLICY_NAME must not be empty")
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if c.Cache.Backend == "badger" && c.Cache.Path == "" {
		return fmt.Errorf("CACHE_PATH is required when cache backend is badger")
	}
	if c.Cache.Backend != "none" && c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when caching is enabled")
	}

	if c.Events.Enabled {
		if c.Events.URL == "" {
			return fmt.Errorf("NATS_URL is required when events are enabled")
		}
		if c.Events.EmbeddedServer && c.Events.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required for the embedded NATS server")
		}
		if c.Events.StreamName == "" {
			return fmt.Errorf("NATS_STREAM must not be empty")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive when auditing is enabled")
	}

	return nil
}

// validateSecurity checks the auth mode and its credentials.
func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
		}
		// Admin credentials are optional in jwt mode; without them the
		// login endpoint is disabled and tokens must be minted elsewhere.
		if c.Security.AdminPassword != "" {
			if err := c.adminPasswordPolicy().Check(c.Security.AdminUsername, c.Security.AdminPassword); err != nil {
				return fmt.Errorf("ADMIN_PASSWORD: %w", err)
			}
		}
	case "basic":
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required when AUTH_MODE=basic")
		}
		if err := c.adminPasswordPolicy().Check(c.Security.AdminUsername, c.Security.AdminPassword); err != nil {
			return fmt.Errorf("ADMIN_PASSWORD: %w", err)
		}
	case "none":
		if c.Server.Environment == "production" {
			return fmt.Errorf("AUTH_MODE=none is not allowed in production")
		}
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	return nil
}

// adminPasswordPolicy selects the password policy for the environment.
func (c *Config) adminPasswordPolicy() PasswordPolicy {
	if c.Server.Environment == "production" {
		return DefaultPasswordPolicy()
	}
	return RelaxedPasswordPolicy()
}
