// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthManager handles HTTP Basic Authentication for the admin
// account. The password is bcrypt-hashed once at startup so requests
// never handle the plaintext.
type BasicAuthManager struct {
	username     string
	passwordHash []byte
}

// NewBasicAuthManager creates a Basic Auth manager. The password is
// hashed with bcrypt cost 12 at initialization.
func NewBasicAuthManager(username, password string) (*BasicAuthManager, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &BasicAuthManager{
		username:     username,
		passwordHash: hash,
	}, nil
}

// ValidateCredentials validates an Authorization header value.
// Returns the username on success.
func (m *BasicAuthManager) ValidateCredentials(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, "Basic ") {
		return "", fmt.Errorf("invalid authorization header format")
	}

	encodedCredentials := strings.TrimPrefix(authHeader, "Basic ")
	credentials, err := base64.StdEncoding.DecodeString(encodedCredentials)
	if err != nil {
		return "", fmt.Errorf("failed to decode credentials")
	}

	parts := strings.SplitN(string(credentials), ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid credentials format")
	}

	if !m.validateUsernamePassword(parts[0], parts[1]) {
		return "", fmt.Errorf("invalid username or password")
	}

	return parts[0], nil
}

// validateUsernamePassword compares both credentials in constant time.
// The username check uses subtle.ConstantTimeCompare; bcrypt comparison
// is timing-safe already. Both comparisons run regardless of the
// username result.
func (m *BasicAuthManager) validateUsernamePassword(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	return usernameMatch && passwordMatch
}

// ValidatePassword checks a username and password pair directly. Used
// by the login endpoint that exchanges credentials for a bearer token.
func (m *BasicAuthManager) ValidatePassword(username, password string) bool {
	return m.validateUsernamePassword(username, password)
}

// GetWWWAuthenticateHeader returns the WWW-Authenticate header value
// sent with 401 responses.
func (m *BasicAuthManager) GetWWWAuthenticateHeader() string {
	return `Basic realm="Crudgate", charset="UTF-8"`
}
