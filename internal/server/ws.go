package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/zonebeat/internal/log"
)

// Event message types sent on /api/events.
const (
	EventPoints = "points"
	EventPlayed = "played"
	EventEditor = "editor"
)

const (
	eventQueueSize = 256
	writeTimeout   = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type eventMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// EventHub broadcasts live points, played sounds and editor events to
// WebSocket clients.
type EventHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	queue   chan []byte
	done    chan struct{}
	once    sync.Once
}

// NewEventHub creates a hub and starts its broadcast loop.
func NewEventHub() *EventHub {
	h := &EventHub{
		clients: make(map[*websocket.Conn]bool),
		queue:   make(chan []byte, eventQueueSize),
		done:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues a message for every client. It never blocks; messages are
// dropped when nobody listens or the queue is full.
func (h *EventHub) Publish(kind string, data any) {
	if h.Clients() == 0 {
		return
	}
	msg, err := json.Marshal(eventMessage{Type: kind, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Warn("failed to encode event", "type", kind, "error", err)
		return
	}
	select {
	case h.queue <- msg:
	default:
		log.Debug("event queue full, message dropped", "type", kind)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// broadcast is the only writer to client connections.
func (h *EventHub) broadcast() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.queue:
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.RUnlock()

			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Debug("dropping event client", "error", err)
					h.remove(conn)
					conn.Close()
				}
			}
		}
	}
}

// Close stops the broadcast loop and disconnects every client.
func (h *EventHub) Close() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
		}
		clear(h.clients)
		h.mu.Unlock()
	})
}
