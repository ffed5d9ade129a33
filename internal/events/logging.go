// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/crudgate/crudgate/internal/logging"
)

// watermillLogger adapts the zerolog-based logger to the
// watermill.LoggerAdapter interface.
type watermillLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger returns a watermill logger writing through the
// service logger with a component field.
func NewWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{logger: logging.WithComponent("events")}
}

func (l *watermillLogger) withFields(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.withFields(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Info(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Trace(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &watermillLogger{logger: ctx.Logger()}
}
