package signal

import (
	"sync"
	"time"

	"beamcast/internal/core/domain"
	"beamcast/internal/core/ports"

	"github.com/gorilla/websocket"
)

// Envelope is the wire format for every outbound event.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// connection serializes writes: gorilla permits only one concurrent writer.
type connection struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *connection) writeJSON(v interface{}, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(timeout))
	return c.ws.WriteJSON(v)
}

// Hub tracks live connections and delivers outbound events to them. It is
// the ports.Notifier implementation handed to the core services.
type Hub struct {
	conns        map[domain.ConnID]*connection
	mu           sync.RWMutex
	writeTimeout time.Duration
}

var _ ports.Notifier = (*Hub)(nil)

func NewHub(writeTimeout time.Duration) *Hub {
	return &Hub{
		conns:        make(map[domain.ConnID]*connection),
		writeTimeout: writeTimeout,
	}
}

func (h *Hub) Register(id domain.ConnID, ws *websocket.Conn) {
	h.mu.Lock()
	h.conns[id] = &connection{ws: ws}
	h.mu.Unlock()
}

func (h *Hub) Unregister(id domain.ConnID) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Send delivers one event to one connection.
func (h *Hub) Send(id domain.ConnID, event string, payload interface{}) error {
	h.mu.RLock()
	conn, exists := h.conns[id]
	h.mu.RUnlock()

	if !exists {
		return domain.ErrTargetNotFound
	}
	return conn.writeJSON(Envelope{Type: event, Payload: payload}, h.writeTimeout)
}

// Count reports the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
