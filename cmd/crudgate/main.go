// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Crudgate answers one question: may this role perform this CRUD
// action on this resource class? Roles and permission records live in
// DuckDB, decisions are cached, and admin mutations propagate to other
// instances over NATS JetStream.
//
// Quick start:
//
//	DB_PATH=/data/crudgate.db AUTH_MODE=none ./crudgate
//	curl -X POST localhost:8086/api/v1/check \
//	  -d '{"role":"editor","policy":"articles","action":"update"}'
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	_ "github.com/crudgate/crudgate/docs" // generated swagger docs
	"github.com/crudgate/crudgate/internal/api"
	"github.com/crudgate/crudgate/internal/auth"
	"github.com/crudgate/crudgate/internal/cache"
	"github.com/crudgate/crudgate/internal/config"
	"github.com/crudgate/crudgate/internal/database"
	"github.com/crudgate/crudgate/internal/engine"
	"github.com/crudgate/crudgate/internal/events"
	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/supervisor"
	"github.com/crudgate/crudgate/internal/supervisor/services"
	ws "github.com/crudgate/crudgate/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("default_policy", cfg.Policy.DefaultPolicyName).
		Bool("strict_mode", cfg.Policy.StrictMode).
		Bool("case_sensitive", cfg.Policy.CaseSensitive).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	decisionCache, err := buildCache(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize decision cache")
	}

	auditCfg := &engine.AuditLoggerConfig{
		Enabled:       cfg.Audit.Enabled,
		LogAllowed:    cfg.Audit.LogAllowed,
		LogDenied:     cfg.Audit.LogDenied,
		SampleRate:    cfg.Audit.SampleRate,
		BufferSize:    cfg.Audit.BufferSize,
		FlushInterval: cfg.Audit.FlushInterval,
	}

	eng, err := engine.New(db, decisionCache, engine.Config{
		DefaultPolicyName:     cfg.Policy.DefaultPolicyName,
		CaseSensitivePolicies: cfg.Policy.CaseSensitive,
		StrictMode:            cfg.Policy.StrictMode,
	}, auditCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize decision engine")
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing engine")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// Websocket decision stream, fed by an engine hook.
	hub := ws.NewHub()
	eng.AddDecisionHook(hub.BroadcastDecision)
	tree.AddStreamingService(services.NewRunnerService("websocket-hub", services.RunnerFunc(hub.RunWithContext)))

	authenticator, err := auth.NewAuthenticator(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}
	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); development use only")
	}

	handlerOpts := []api.HandlerOption{
		api.WithWebsocket(hub.ServeWS),
	}

	if cfg.Security.AuthMode == "jwt" {
		if cfg.Security.AdminUsername == "" || cfg.Security.AdminPassword == "" {
			logging.Warn().Msg("No admin credentials configured; login endpoint disabled")
		} else {
			jwtManager, err := auth.NewJWTManager(&cfg.Security)
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
			}
			basicManager, err := auth.NewBasicAuthManager(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to initialize admin credentials for login")
			}
			handlerOpts = append(handlerOpts, api.WithJWT(jwtManager, basicManager))
		}
	}

	// Change event propagation over NATS JetStream.
	if cfg.Events.Enabled {
		eventsOpts, cleanup, err := setupEvents(ctx, cfg, eng, tree)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize change events")
		}
		defer cleanup()
		handlerOpts = append(handlerOpts, eventsOpts...)
	} else {
		logging.Info().Msg("Change events disabled; caches converge via TTL only")
	}

	handler := api.NewHandler(db, eng, handlerOpts...)
	router := api.NewRouter(handler, authenticator, &api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Security.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitRequests:    cfg.Security.RateLimitReqs,
		RateLimitWindow:      cfg.Security.RateLimitWindow,
		RateLimitDisabled:    cfg.Security.RateLimitDisabled,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Stopped gracefully")
}

// buildCache constructs the decision cache for the configured backend.
func buildCache(cfg *config.Config) (engine.DecisionCache, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return engine.NewMemoryCache(cfg.Cache.TTL), nil
	case "badger":
		c, err := cache.OpenBadger(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("path", cfg.Cache.Path).Msg("Persistent decision cache enabled")
		return c, nil
	case "none":
		return engine.NewNopCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// setupEvents starts the optional embedded broker, provisions the
// change stream, and wires the publisher and cache invalidator.
// The returned cleanup closes connections not owned by the supervisor.
func setupEvents(ctx context.Context, cfg *config.Config, eng *engine.Engine, tree *supervisor.Tree) ([]api.HandlerOption, func(), error) {
	url := cfg.Events.URL
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Events.EmbeddedServer {
		embedded, err := events.NewEmbeddedServer(&events.EmbeddedServerConfig{
			StoreDir: cfg.Events.StoreDir,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("start embedded NATS server: %w", err)
		}
		cleanups = append(cleanups, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
			}
		})
		url = embedded.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	// Provision the change stream before publishers and subscribers
	// bind to it.
	nc, err := natsgo.Connect(url)
	if err != nil {
		return nil, cleanup, fmt.Errorf("connect to NATS: %w", err)
	}
	cleanups = append(cleanups, nc.Close)

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, cleanup, fmt.Errorf("create JetStream context: %w", err)
	}

	streamInit, err := events.NewStreamInitializer(js, &events.StreamConfig{
		Name:   cfg.Events.StreamName,
		MaxAge: cfg.Events.StreamMaxAge,
	})
	if err != nil {
		return nil, cleanup, err
	}
	if _, err := streamInit.EnsureStream(ctx); err != nil {
		return nil, cleanup, fmt.Errorf("provision change stream: %w", err)
	}

	wmLogger := events.NewWatermillLogger()

	publisher, err := events.NewPublisher(events.PublisherConfig{URL: url}, wmLogger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("create change publisher: %w", err)
	}
	cleanups = append(cleanups, func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing change publisher")
		}
	})

	subscriber, err := events.NewSubscriber(&events.SubscriberConfig{
		URL:         url,
		StreamName:  cfg.Events.StreamName,
		DurableName: cfg.Events.DurableName,
		QueueGroup:  cfg.Events.QueueGroup,
	}, wmLogger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("create change subscriber: %w", err)
	}
	cleanups = append(cleanups, func() {
		if err := subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing change subscriber")
		}
	})

	invalidator := events.NewInvalidator(subscriber, eng)
	tree.AddEventsService(services.NewRunnerService("cache-invalidator", services.RunnerFunc(invalidator.Run)))

	logging.Info().Str("url", url).Str("stream", cfg.Events.StreamName).Msg("Change event propagation enabled")

	return []api.HandlerOption{
		api.WithPublisher(publisher),
		api.WithEventsHealth(streamInit),
	}, cleanup, nil
}
