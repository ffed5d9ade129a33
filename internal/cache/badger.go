// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Package cache provides the persistent decision cache backend.
//
// The in-memory cache in internal/engine is the default; this badger
// backend keeps cached decisions across restarts, which matters for
// deployments fronting high-traffic APIs where a cold cache causes a
// thundering herd against the policy store. Entries carry a badger TTL
// so expiry needs no sweeper goroutine.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/crudgate/crudgate/internal/engine"
	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/models"
)

const decisionKeyPrefix = "decision:"

// BadgerDecisionCache implements engine.DecisionCache on BadgerDB.
type BadgerDecisionCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens (or creates) a badger-backed decision cache at the
// given path.
func OpenBadger(path string, ttl time.Duration) (*BadgerDecisionCache, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache at %s: %w", path, err)
	}

	return &BadgerDecisionCache{db: db, ttl: ttl}, nil
}

// NewBadgerDecisionCache wraps an already-open badger database.
func NewBadgerDecisionCache(db *badger.DB, ttl time.Duration) *BadgerDecisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BadgerDecisionCache{db: db, ttl: ttl}
}

func decisionKey(role, policy string, action models.Action) []byte {
	return []byte(decisionKeyPrefix + role + ":" + policy + ":" + string(action))
}

// Get retrieves a cached decision. A corrupt entry reads as a miss.
func (c *BadgerDecisionCache) Get(role, policy string, action models.Action) (*engine.CachedDecision, bool) {
	var decision engine.CachedDecision

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(decisionKey(role, policy, action))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &decision)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Debug().Err(err).Msg("Badger cache read failed, treating as miss")
		}
		return nil, false
	}
	return &decision, true
}

// Set stores a decision with the cache TTL.
func (c *BadgerDecisionCache) Set(role, policy string, action models.Action, d *engine.CachedDecision) {
	data, err := json.Marshal(d)
	if err != nil {
		logging.Debug().Err(err).Msg("Badger cache marshal failed, skipping set")
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(decisionKey(role, policy, action), data).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logging.Debug().Err(err).Msg("Badger cache write failed")
	}
}

// InvalidateRole deletes every cached decision for a role.
func (c *BadgerDecisionCache) InvalidateRole(role string) {
	prefix := []byte(decisionKeyPrefix + role + ":")

	err := c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Str("role", role).Msg("Badger cache invalidation failed")
	}
}

// Clear drops the entire decision keyspace.
func (c *BadgerDecisionCache) Clear() {
	if err := c.db.DropPrefix([]byte(decisionKeyPrefix)); err != nil {
		logging.Warn().Err(err).Msg("Badger cache clear failed")
	}
}

// Close closes the underlying database.
func (c *BadgerDecisionCache) Close() error {
	return c.db.Close()
}
