package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/scenes/pkg/dashboard"
)

// MessageType is the type of a message pushed to clients.
type MessageType string

const (
	MessageSnapshot MessageType = "snapshot"
	MessageError    MessageType = "error"
)

// Message is sent to clients via WebSocket.
type Message struct {
	Type     MessageType         `json:"type"`
	Snapshot *dashboard.Snapshot `json:"snapshot,omitempty"`
	Error    string              `json:"error,omitempty"`
}

const writeWait = 10 * time.Second

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections and pushes dashboard snapshots to them.
type Hub struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	current  func() dashboard.Snapshot
	logger   *slog.Logger
}

// NewHub creates a hub. current supplies the snapshot sent to a client
// when it connects. allowedOrigins lists accepted Origin headers; "*"
// accepts any origin and an empty list accepts same-origin requests only.
func NewHub(current func() dashboard.Snapshot, allowedOrigins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		current: current,
		logger:  logger.With("component", "live"),
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// HandleWebSocket handles WebSocket upgrade and connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	if h.current != nil {
		snap := h.current()
		if data, err := json.Marshal(Message{Type: MessageSnapshot, Snapshot: &snap}); err == nil {
			if err := c.write(data); err != nil {
				h.remove(c)
				return
			}
		}
	}

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// Publish sends a snapshot to all clients.
func (h *Hub) Publish(snap dashboard.Snapshot) {
	h.broadcast(Message{Type: MessageSnapshot, Snapshot: &snap})
}

// NotifyError sends an error message to all clients.
func (h *Hub) NotifyError(msg string) {
	h.broadcast(Message{Type: MessageError, Error: msg})
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("cannot encode message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}
