// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package engine

import (
	"strings"

	"github.com/crudgate/crudgate/internal/models"
)

// NormalizePolicyName applies the engine's two name rules to a
// requested policy name: an absent name is replaced with the default,
// and case folding is applied when policies are case-insensitive.
//
// The store applies the same folding to stored names at comparison
// time, so a check never compares a folded name against an unfolded
// one.
func (e *Engine) NormalizePolicyName(requested string) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = e.config.DefaultPolicyName
	}
	if !e.config.CaseSensitivePolicies {
		name = models.FoldPolicyName(name)
	}
	return name
}
