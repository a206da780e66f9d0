// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"po-bridge-api-server/internal/logger"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Hub tracks open dashboard connections per buyer. A buyer may have several tabs open.
type Hub struct {
	clients map[string]map[*websocket.Conn]*client
	mu      sync.RWMutex
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*client),
		log:     log,
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userID]
	if !ok {
		conns = make(map[*websocket.Conn]*client)
		h.clients[userID] = conns
	}
	conns[conn] = &client{conn: conn}
	h.log.Debug(h.log.WithUserID(context.Background(), userID), "websocket client registered")
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	h.log.Debug(h.log.WithUserID(context.Background(), userID), "websocket client unregistered")
}

// Connections reports how many sockets a buyer has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Send writes message to every connection of userID. An offline buyer is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var firstErr error
	for _, c := range targets {
		if err := c.write(message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Event is the envelope pushed to dashboards.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Publish sends a named event to a buyer's open dashboards.
func (h *Hub) Publish(ctx context.Context, userID, event string, data interface{}) error {
	message, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return err
	}
	if err := h.Send(userID, message); err != nil {
		h.log.Warn(h.log.WithFields(ctx, map[string]any{"user_id": userID, "event": event, "error": err.Error()}), "websocket push failed")
		return err
	}
	return nil
}
