// Package realtime fans planner events out to connected clients over
// websocket. Publishing is fire-and-forget: a slow or dead client is
// dropped, and no failure here ever reaches the request that triggered
// the event.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The mobile client connects from a non-browser origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type message struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// Hub tracks connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request and keeps the connection registered
// until the peer goes away. Inbound frames are drained and ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends a topic+payload message to every connected client.
// Failures are logged and swallowed.
func (h *Hub) Publish(topic string, payload any) {
	data, err := json.Marshal(message{Topic: topic, Payload: payload})
	if err != nil {
		log.Printf("broadcast marshal: %v", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("broadcast write: %v", err)
			h.drop(c)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if present {
		conn.Close()
	}
}
