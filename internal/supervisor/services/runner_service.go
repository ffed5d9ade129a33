// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package services

import "context"

// Runner is any component with a blocking, context-canceled run loop.
// The websocket hub and the change event invalidator satisfy it.
type Runner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerFunc adapts a plain run function to Runner.
type RunnerFunc func(ctx context.Context) error

// RunWithContext calls the wrapped function.
func (f RunnerFunc) RunWithContext(ctx context.Context) error {
	return f(ctx)
}

// RunnerService wraps a Runner as a suture service.
type RunnerService struct {
	name   string
	runner Runner
}

// NewRunnerService creates a named service around a run loop.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{name: name, runner: runner}
}

// Serve implements suture.Service. Context cancellation is the normal
// stop path and is reported as ctx.Err() so suture does not restart.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

func (s *RunnerService) String() string {
	return s.name
}
