// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/crudgate/crudgate/internal/logging"
)

// upgrader upgrades HTTP connections. Origin checking is delegated to
// the CORS middleware in front of the route.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and registers the client with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h, conn)
	h.Register <- client
	client.Start()
}
