// Package transport exposes the seller's message bus to buyers over
// WebSocket. Each connection is one buyer: a read pump injects inbound
// envelopes into the bus under the buyer's address, a write pump delivers
// replies from the buyer's inbox.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/booktrade/sellerd/internal/bus"
	"github.com/booktrade/sellerd/internal/protocol"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

// Endpoint upgrades buyer connections and bridges them onto the bus.
type Endpoint struct {
	bus      *bus.Bus
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewEndpoint creates a WebSocket endpoint backed by the given bus.
func NewEndpoint(b *bus.Bus, logger *slog.Logger) *Endpoint {
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoint{
		bus:    b,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// ServeHTTP upgrades the connection and runs the pumps until the buyer
// disconnects.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	addr := r.URL.Query().Get("agent")
	if addr == "" {
		addr = "buyer-" + uuid.NewString()
	}

	inbox := e.bus.Register(addr)
	defer e.bus.Unregister(addr)
	defer conn.Close()

	e.logger.Info("buyer connected", "agent", addr, "remote", r.RemoteAddr)

	done := make(chan struct{})
	go e.writePump(conn, inbox, done)
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var env protocol.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				e.logger.Warn("buyer connection error", "agent", addr, "err", err)
			}
			e.logger.Info("buyer disconnected", "agent", addr)
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		// Replies must route back to this connection regardless of what
		// the buyer wrote in the sender field.
		env.From = addr

		if err := e.bus.Deliver(env); err != nil {
			e.logger.Debug("rejected inbound message",
				"agent", addr,
				"performative", env.Performative,
				"err", err,
			)
			if reply, rerr := env.Reply(protocol.NotUnderstood, nil); rerr == nil {
				e.bus.Send(reply)
			}
		}
	}
}

// writePump drains the buyer's inbox onto the connection and keeps the
// connection alive with pings.
func (e *Endpoint) writePump(conn *websocket.Conn, inbox <-chan protocol.Envelope, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case env := <-inbox:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(env); err != nil {
				e.logger.Warn("failed to write reply", "to", env.To, "err", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
