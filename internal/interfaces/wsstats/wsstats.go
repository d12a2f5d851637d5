// Package wsstats pushes Stats snapshots to connected dashboard clients over
// a websocket, as a push companion to the polling GET /llmsim/stats route.
//
// Grounded on the teacher's internal/interfaces/websocket (Hub/Client
// broadcast-channel structure); the payload and message types are rewritten
// for stats frames instead of chat messages, and the request/response
// message catalog (tool calls, approvals, sessions) is dropped since
// nothing in this domain needs bidirectional chat traffic.
package wsstats

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chaliy/llmsim/internal/domain/stats"
	"github.com/chaliy/llmsim/pkg/safego"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const tickInterval = time.Second

// client is one connected dashboard. There is no session or user identity
// to track for a read-only, server-push-only stats feed.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts Stats snapshots to every connected client on a fixed
// ticker. One instance is created at boot, started with Run, and torn down
// when ctx is cancelled.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	agg     *stats.Aggregator
	logger  *zap.Logger
}

// NewHub builds a Hub that broadcasts snapshots from agg.
func NewHub(agg *stats.Aggregator, logger *zap.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), agg: agg, logger: logger}
}

// Run ticks every tickInterval, marshals the current snapshot once, and
// fans it out to every connected client. It blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	data, err := json.Marshal(h.agg.Snapshot())
	if err != nil {
		h.logger.Error("failed to marshal stats snapshot", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow client: drop the frame rather than block the ticker.
		}
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeWS upgrades r to a websocket and registers the connection to receive
// stats broadcasts until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade stats websocket", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.addClient(c)

	safego.Go(h.logger, "wsstats-writer", func() { h.writePump(c) })
	h.readPump(c)
}

// readPump only exists to notice the client going away (a dashboard never
// sends anything meaningful back); any read error unregisters the client.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains c.send onto the connection and keeps it alive with
// periodic pings, exiting once send is closed by removeClient.
func (h *Hub) writePump(c *client) {
	ping := time.NewTicker(30 * time.Second)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
