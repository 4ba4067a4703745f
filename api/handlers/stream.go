package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/models"
)

// ReportEvent is pushed to stream subscribers whenever the report store
// changes, so dashboards can update between polling refreshes.
type ReportEvent struct {
	Event  string         `json:"event"` // created, updated, deleted
	ID     string         `json:"id"`
	Report *models.Report `json:"report,omitempty"`
}

// Hub fans report events out to the connected websocket clients
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// Broadcast sends the event to every connected client. Clients that fail to
// receive are dropped.
func (h *Hub) Broadcast(ev ReportEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			zap.S().Debugw("dropping stream client", "error", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected stream clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
}

// Stream handles websocket subscriptions to report events
type Stream struct {
	Hub *Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard connects cross-port in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler upgrades the connection and keeps it registered until the
// client goes away. The stream is write-only; inbound messages are drained
// and discarded.
func (s Stream) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("failed to upgrade stream connection", "error", err)
		return
	}

	s.Hub.register(conn)
	zap.S().Debugw("stream client connected", "remote", conn.RemoteAddr().String())

	go func() {
		defer s.Hub.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
