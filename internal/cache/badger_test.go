// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package cache

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/crudgate/crudgate/internal/engine"
	"github.com/crudgate/crudgate/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) *BadgerDecisionCache {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("failed to open in-memory badger: %v", err)
	}

	c := NewBadgerDecisionCache(db, ttl)
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return c
}

func TestBadgerCacheSetGet(t *testing.T) {
	c := newTestCache(t, time.Minute)

	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("empty cache should miss")
	}

	c.Set("editor", "articles", models.ActionRead, &engine.CachedDecision{Allowed: true, Match: models.MatchSpecific})

	d, ok := c.Get("editor", "articles", models.ActionRead)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !d.Allowed || d.Match != models.MatchSpecific {
		t.Errorf("cached decision = %+v", d)
	}

	if _, ok := c.Get("editor", "articles", models.ActionDelete); ok {
		t.Error("different action should miss")
	}
}

func TestBadgerCacheTTL(t *testing.T) {
	c := newTestCache(t, time.Second)

	c.Set("editor", "articles", models.ActionRead, &engine.CachedDecision{Allowed: true, Match: models.MatchSpecific})
	time.Sleep(1100 * time.Millisecond)

	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("expired entry should miss")
	}
}

func TestBadgerCacheInvalidateRole(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("editor", "articles", models.ActionRead, &engine.CachedDecision{Allowed: true, Match: models.MatchSpecific})
	c.Set("editor", "comments", models.ActionRead, &engine.CachedDecision{Allowed: false, Match: models.MatchNone})
	c.Set("admin", "articles", models.ActionRead, &engine.CachedDecision{Allowed: true, Match: models.MatchWildcard})

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

func TestBadgerCacheClear(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("editor", "articles", models.ActionRead, &engine.CachedDecision{Allowed: true, Match: models.MatchSpecific})
	c.Set("admin", "articles", models.ActionRead, &engine.CachedDecision{Allowed: true, Match: models.MatchWildcard})

	c.Clear()

	if _, ok := c.Get("editor", "articles", models.ActionRead); ok {
		t.Error("cleared cache should miss")
	}
	if _, ok := c.Get("admin", "articles", models.ActionRead); ok {
		t.Error("cleared cache should miss for all roles")
	}
}
