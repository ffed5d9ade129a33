// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext is the subset of jetstream.JetStream the
// initializer needs; tests substitute fakes.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamConfig describes the change event stream.
type StreamConfig struct {
	// Name is the JetStream stream name
	Name string

	// MaxAge bounds how long change events are retained
	MaxAge time.Duration

	// MaxMsgs bounds the stream size (-1 for unlimited)
	MaxMsgs int64

	// DuplicateWindow is the deduplication window for event IDs
	DuplicateWindow time.Duration
}

// StreamInitializer ensures the change stream exists with the right
// configuration before publishers and subscribers start.
type StreamInitializer struct {
	js     JetStreamContext
	config StreamConfig
}

// NewStreamInitializer creates a stream initializer.
func NewStreamInitializer(js JetStreamContext, cfg *StreamConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	if cfg == nil || cfg.Name == "" {
		return nil, fmt.Errorf("stream name required")
	}

	return &StreamInitializer{js: js, config: *cfg}, nil
}

// EnsureStream creates or updates the stream. Idempotent.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	dupWindow := s.config.DuplicateWindow
	if dupWindow <= 0 {
		dupWindow = 2 * time.Minute
	}

	streamCfg := jetstream.StreamConfig{
		Name:        s.config.Name,
		Subjects:    []string{TopicWildcard},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      s.config.MaxAge,
		MaxMsgs:     s.config.MaxMsgs,
		Duplicates:  dupWindow,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	_, err := s.js.Stream(ctx, s.config.Name)
	if err == nil {
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", s.config.Name, err)
}

// IsHealthy reports whether the stream is reachable.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	_, err := s.js.Stream(ctx, s.config.Name)
	return err == nil
}
