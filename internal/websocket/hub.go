// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

// Package websocket streams authorization decisions to connected
// clients in real time. The hub fans decisions out to every client;
// slow clients drop messages rather than stall the stream. Decisions
// reach the hub through an engine decision hook, so streaming never
// sits on the check hot path beyond one channel send.
package websocket

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/crudgate/crudgate/internal/logging"
	"github.com/crudgate/crudgate/internal/metrics"
	"github.com/crudgate/crudgate/internal/models"
)

// Message types sent over the decision stream.
const (
	MessageTypeDecision = "decision"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// Message is the websocket frame envelope.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts decisions.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	limiter    *rate.Limiter
	mu         sync.RWMutex
}

// maxBroadcastRate caps decisions fanned out per second. Beyond this
// the stream samples; the audit log remains complete.
const maxBroadcastRate = 500

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		limiter:    rate.NewLimiter(rate.Limit(maxBroadcastRate), maxBroadcastRate),
	}
}

// BroadcastDecision queues a decision for fan-out. Non-blocking: when
// the broadcast buffer is full or the rate cap is hit, the decision is
// dropped from the stream. Suitable as an engine decision hook.
func (h *Hub) BroadcastDecision(decision models.Decision) {
	if !h.limiter.Allow() {
		metrics.WebsocketMessagesDropped.Inc()
		return
	}

	select {
	case h.broadcast <- Message{Type: MessageTypeDecision, Data: decision}:
	default:
		metrics.WebsocketMessagesDropped.Inc()
	}
}

// RunWithContext processes registrations and broadcasts until the
// context is canceled, then closes every client connection.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(total))
			logging.Info().Int("total_clients", total).Msg("Decision stream client connected")

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(total))
			logging.Info().Int("total_clients", total).Msg("Decision stream client disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					metrics.WebsocketMessagesDropped.Inc()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll drops every client. Called once during shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebsocketClients.Set(0)
}
