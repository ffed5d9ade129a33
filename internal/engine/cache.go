// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package engine

import (
	"sync"
	"time"

	"github.com/crudgate/crudgate/internal/models"
)

// CachedDecision is the part of a decision worth caching: the outcome
// and which record produced it. Strict-mode errors are never cached.
type CachedDecision struct {
	Allowed bool
	Match   models.MatchKind
}

// DecisionCache caches authorization decisions keyed by
// (role, normalized policy, action). Implementations must be safe for
// concurrent use. The in-memory cache below is the default; the badger
// backend in internal/cache persists across restarts.
type DecisionCache interface {
	Get(role, policy string, action models.Action) (*CachedDecision, bool)
	Set(role, policy string, action models.Action, d *CachedDecision)
	InvalidateRole(role string)
	Clear()
	Close() error
}

// memoryCache is a TTL map cache for decisions.
type memoryCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]*memoryCacheItem
	stopChan chan struct{}
	stopOnce sync.Once
}

type memoryCacheItem struct {
	decision  CachedDecision
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory decision cache with background
// expiry.
func NewMemoryCache(ttl time.Duration) DecisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &memoryCache{
		ttl:      ttl,
		items:    make(map[string]*memoryCacheItem),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func cacheKey(role, policy string, action models.Action) string {
	return role + ":" + policy + ":" + string(action)
}

func (c *memoryCache) Get(role, policy string, action models.Action) (*CachedDecision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[cacheKey(role, policy, action)]
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		return nil, false
	}
	d := item.decision
	return &d, true
}

func (c *memoryCache) Set(role, policy string, action models.Action, d *CachedDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[cacheKey(role, policy, action)] = &memoryCacheItem{
		decision:  *d,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// InvalidateRole removes all cached decisions for a role. Called on
// every admin mutation touching the role.
func (c *memoryCache) InvalidateRole(role string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := role + ":"
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
		}
	}
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*memoryCacheItem)
}

func (c *memoryCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
					RecordCacheEviction()
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *memoryCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	return nil
}

// nopCache satisfies DecisionCache when caching is disabled.
type nopCache struct{}

// NewNopCache returns a cache that stores nothing.
func NewNopCache() DecisionCache { return nopCache{} }

func (nopCache) Get(string, string, models.Action) (*CachedDecision, bool) { return nil, false }
func (nopCache) Set(string, string, models.Action, *CachedDecision)       {}
func (nopCache) InvalidateRole(string)                                    {}
func (nopCache) Clear()                                                   {}
func (nopCache) Close() error                                             { return nil }
