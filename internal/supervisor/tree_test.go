// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package supervisor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/crudgate/crudgate/internal/supervisor/services"
)

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(slog.Default(), TreeConfig{})

	started := make(chan struct{})
	tree.AddStreamingService(services.NewRunnerService("probe", services.RunnerFunc(
		func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not start")
	}

	cancel()

	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}
