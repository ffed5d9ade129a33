// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package engine

import (
	"testing"
	"time"

	"github.com/crudgate/crudgate/internal/models"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close() //nolint:errcheck // memory cache close never fails

	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("empty cache should miss")
	}

	c.Set("editor", "articles", models.ActionRead, &CachedDecision{Allowed: true, Match: models.MatchSpecific})
	d, ok := c.Get("editor", "articles", models.ActionRead)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !d.Allowed || d.Match != models.MatchSpecific {
		t.Errorf("cached decision = %+v", d)
	}

	// Different action is a separate key.
	if _, ok := c.Get("editor", "articles", models.ActionDelete); ok {
		t.Error("different action should miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	defer c.Close() //nolint:errcheck // memory cache close never fails

	c.Set("editor", "articles", models.ActionRead, &CachedDecision{Allowed: true, Match: models.MatchSpecific})
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("expired entry should miss")
	}
}

func TestMemoryCacheInvalidateRole(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close() //nolint:errcheck // memory cache close never fails

	c.Set("editor", "articles", models.ActionRead, &CachedDecision{Allowed: true, Match: models.MatchSpecific})
	c.Set("editor", "comments", models.ActionRead, &CachedDecision{Allowed: true, Match: models.MatchSpecific})
	c.Set("admin", "articles", models.ActionRead, &CachedDecision{Allowed: true, Match: models.MatchWildcard})

	c.InvalidateRole("editor")

	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("invalidated role entry should miss")
	}
	if _, ok := c.Get("editor", "comments", models.ActionRead); ok {
		t.Error("all entries for the role should be dropped")
	}
	if _, ok := c.Get("admin", "articles", models.ActionRead); !ok {
		t.Error("other roles should be untouched")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close() //nolint:errcheck // memory cache close never fails

	c.Set("editor", "articles", models.ActionRead, &CachedDecision{Allowed: true, Match: models.MatchSpecific})
	c.Clear()

	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("cleared cache should miss")
	}
}

func TestNopCache(t *testing.T) {
	c := NewNopCache()
	c.Set("editor", "articles", models.ActionRead, &CachedDecision{Allowed: true})
	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("nop cache should never hit")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
