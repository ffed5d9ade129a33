// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package config

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy defines strength requirements for the admin password.
// Follows NIST SP 800-63B.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool

	// ForbidUsernameSimilarity rejects passwords containing the
	// username (case-insensitive).
	ForbidUsernameSimilarity bool
}

// DefaultPasswordPolicy is applied to admin credentials in production.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:                12,
		RequireUppercase:         true,
		RequireLowercase:         true,
		RequireDigit:             true,
		ForbidUsernameSimilarity: true,
	}
}

// RelaxedPasswordPolicy is applied outside production. Length only, so
// local setups stay frictionless.
func RelaxedPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8}
}

// commonPasswords are rejected outright regardless of policy flags.
var commonPasswords = map[string]struct{}{
	"password":      {},
	"password123":   {},
	"admin":         {},
	"administrator": {},
	"changeme":      {},
	"letmein":       {},
	"qwerty123456":  {},
	"123456789012":  {},
}

// Check validates password against the policy. username may be empty.
func (p PasswordPolicy) Check(username, password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters", p.MinLength)
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return fmt.Errorf("password is too common")
	}

	if p.ForbidUsernameSimilarity && username != "" &&
		strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return fmt.Errorf("password must not contain the username")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		return fmt.Errorf("password must contain an uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		return fmt.Errorf("password must contain a lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		return fmt.Errorf("password must contain a digit")
	}

	return nil
}
