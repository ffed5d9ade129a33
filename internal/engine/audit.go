// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Async audit logging of authorization decisions. Events are buffered
// and written by a background goroutine; the check path never blocks
// on logging. A full buffer drops events and counts them.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/models"
)

// DecisionEvent captures one authorization decision for the audit log.
type DecisionEvent struct {
	// ID is a unique identifier for this event
	ID string `json:"id"`

	// Decision is the outcome being audited
	Decision models.Decision `json:"decision"`

	// Reason provides context, mainly for denials
	Reason string `json:"reason,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ns"`
}

// AuditLoggerConfig configures the decision audit logger.
type AuditLoggerConfig struct {
	// Enabled controls whether audit logging is active
	Enabled bool

	// LogAllowed controls whether to log allowed decisions
	LogAllowed bool

	// LogDenied controls whether to log denied decisions
	LogDenied bool

	// SampleRate is the fraction of allowed decisions to log (0.0 to 1.0).
	// Denials are always logged at full rate when LogDenied is true.
	SampleRate float64

	// BufferSize is the size of the async buffer; events are dropped
	// when it is full
	BufferSize int

	// FlushInterval is how often buffered events are flushed
	FlushInterval time.Duration
}

// DefaultAuditLoggerConfig returns production defaults.
func DefaultAuditLoggerConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		Enabled:       true,
		LogAllowed:    true,
		LogDenied:     true,
		SampleRate:    1.0,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
	}
}

// AuditLogger writes decision events asynchronously.
type AuditLogger struct {
	config   *AuditLoggerConfig
	events   chan *DecisionEvent
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(config *AuditLoggerConfig) *AuditLogger {
	if config == nil {
		config = DefaultAuditLoggerConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.SampleRate <= 0 || config.SampleRate > 1.0 {
		config.SampleRate = 1.0
	}

	al := &AuditLogger{
		config:   config,
		events:   make(chan *DecisionEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	if config.Enabled {
		al.wg.Add(1)
		go al.processEvents()
	}

	return al
}

// LogDecision records a decision asynchronously. Non-blocking; drops
// the event when the buffer is full.
func (al *AuditLogger) LogDecision(event *DecisionEvent) {
	if al == nil || !al.config.Enabled {
		return
	}

	if event.Decision.Allowed {
		if !al.config.LogAllowed {
			return
		}
		if al.config.SampleRate < 1.0 {
			// Deterministic sampling keyed on the event ID.
			if len(event.ID) > 0 && (int(event.ID[0])%100) >= int(al.config.SampleRate*100) {
				return
			}
		}
	} else if !al.config.LogDenied {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Decision.Timestamp.IsZero() {
		event.Decision.Timestamp = time.Now()
	}

	select {
	case al.events <- event:
	default:
		RecordAuditDropped()
		logging.Warn().
			Str("role", event.Decision.Role).
			Str("policy", event.Decision.Policy).
			Msg("Audit log buffer full, event dropped")
	}
}

func (al *AuditLogger) processEvents() {
	defer al.wg.Done()

	for {
		select {
		case <-al.stopChan:
			al.drainEvents()
			return
		case event := <-al.events:
			al.writeEvent(event)
		}
	}
}

func (al *AuditLogger) drainEvents() {
	for {
		select {
		case event := <-al.events:
			al.writeEvent(event)
		default:
			return
		}
	}
}

func (al *AuditLogger) writeEvent(event *DecisionEvent) {
	RecordAuditEvent(event.Decision.Allowed)

	d := event.Decision
	if d.Allowed {
		logging.Info().
			Str("event_type", "authz_decision").
			Str("audit_id", event.ID).
			Time("audit_timestamp", d.Timestamp).
			Str("role", d.Role).
			Str("policy", d.Policy).
			Str("requested_policy", d.RequestedPolicy).
			Str("action", string(d.Action)).
			Bool("decision", true).
			Str("match", string(d.Match)).
			Bool("cache_hit", d.CacheHit).
			Str("request_id", d.RequestID).
			Dur("duration", event.Duration).
			Msg("Authorization allowed")
		return
	}

	// Denials are warnings for visibility.
	logging.Warn().
		Str("event_type", "authz_decision").
		Str("audit_id", event.ID).
		Time("audit_timestamp", d.Timestamp).
		Str("role", d.Role).
		Str("policy", d.Policy).
		Str("requested_policy", d.RequestedPolicy).
		Str("action", string(d.Action)).
		Bool("decision", false).
		Str("match", string(d.Match)).
		Str("reason", event.Reason).
		Bool("cache_hit", d.CacheHit).
		Str("request_id", d.RequestID).
		Dur("duration", event.Duration).
		Msg("Authorization denied")
}

// Close stops the logger and flushes remaining events.
func (al *AuditLogger) Close() {
	if al == nil {
		return
	}
	al.stopOnce.Do(func() {
		close(al.stopChan)
	})
	al.wg.Wait()
}

// Stats reports current buffer pressure.
func (al *AuditLogger) Stats() AuditLoggerStats {
	if al == nil {
		return AuditLoggerStats{}
	}
	return AuditLoggerStats{
		BufferSize: al.config.BufferSize,
		BufferUsed: len(al.events),
		Enabled:    al.config.Enabled,
		SampleRate: al.config.SampleRate,
	}
}

// AuditLoggerStats describes the audit logger state.
type AuditLoggerStats struct {
	BufferSize int     `json:"buffer_size"`
	BufferUsed int     `json:"buffer_used"`
	Enabled    bool    `json:"enabled"`
	SampleRate float64 `json:"sample_rate"`
}
