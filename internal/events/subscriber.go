// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/crudgate/crudgate/internal/logging"
)

// SubscriberConfig configures the change event subscriber.
type SubscriberConfig struct {
	URL            string
	StreamName     string
	DurableName    string
	QueueGroup     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	AckWaitTimeout time.Duration
	CloseTimeout   time.Duration
}

// Subscriber consumes policy change events from the durable JetStream
// consumer.
type Subscriber struct {
	subscriber message.Subscriber
	config     SubscriberConfig
	logger     watermill.LoggerAdapter
}

// NewSubscriber creates a durable JetStream subscriber bound to the
// change stream. The stream name must be set because the wildcard
// topic cannot name a stream.
func NewSubscriber(cfg *SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}
	if cfg.StreamName == "" {
		return nil, fmt.Errorf("stream name required")
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.AckWaitTimeout <= 0 {
		cfg.AckWaitTimeout = 30 * time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 30 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(5),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverNew(),
		natsgo.BindStream(cfg.StreamName),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{
		subscriber: sub,
		config:     *cfg,
		logger:     logger,
	}, nil
}

// Subscribe returns a channel of messages for the topic.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.subscriber.Subscribe(ctx, topic)
}

// Close shuts down the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}

// CacheInvalidator is the piece of the engine the consumer needs.
type CacheInvalidator interface {
	InvalidateRole(role string)
}

// Invalidator consumes change events and drops cached decisions for
// the affected roles.
type Invalidator struct {
	subscriber *Subscriber
	engine     CacheInvalidator
}

// NewInvalidator wires a subscriber to the decision cache.
func NewInvalidator(subscriber *Subscriber, engine CacheInvalidator) *Invalidator {
	return &Invalidator{subscriber: subscriber, engine: engine}
}

// Run consumes change events until context cancellation. Malformed
// events are acked and dropped; redelivery cannot fix them.
func (inv *Invalidator) Run(ctx context.Context) error {
	messages, err := inv.subscriber.Subscribe(ctx, TopicWildcard)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicWildcard, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			inv.handle(msg)
		}
	}
}

func (inv *Invalidator) handle(msg *message.Message) {
	event, err := UnmarshalChangeEvent(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed change event")
		msg.Ack()
		return
	}

	inv.engine.InvalidateRole(event.RoleName)
	logging.Debug().
		Str("event_id", event.EventID).
		Str("entity", event.Entity).
		Str("action", event.Action).
		Str("role", event.RoleName).
		Msg("Invalidated cached decisions for role")

	msg.Ack()
}
