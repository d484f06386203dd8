package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vbonduro/pantrysync/internal/domain"
)

const writeTimeout = 10 * time.Second

// Client pairs a WebSocket connection with its session metadata. Writes are
// serialized through a per-connection mutex because broadcasts and the
// initial state push can run from different goroutines.
type Client struct {
	conn    *websocket.Conn
	session *domain.Session
	writeMu sync.Mutex
}

func (c *Client) Session() *domain.Session {
	return c.session
}

// Send writes v as one JSON message. It is safe for concurrent use.
func (c *Client) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Close sends a going-away frame and tears the connection down, which also
// unblocks the connection's read loop.
func (c *Client) Close() {
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
	c.writeMu.Unlock()
	_ = c.conn.Close()
}

// Registry tracks open client connections. Broadcast iteration always works
// on a point-in-time snapshot, so connections closing mid-broadcast cannot
// corrupt the iteration.
type Registry struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[*websocket.Conn]*Client)}
}

// Add registers conn and returns its session. The session id is derived
// from the connection's remote endpoint.
func (r *Registry) Add(conn *websocket.Conn) *Client {
	client := &Client{
		conn: conn,
		session: &domain.Session{
			ID:          conn.RemoteAddr().String(),
			ConnectedAt: time.Now(),
		},
	}
	r.mu.Lock()
	r.clients[conn] = client
	r.mu.Unlock()
	return client
}

func (r *Registry) Remove(conn *websocket.Conn) {
	r.mu.Lock()
	delete(r.clients, conn)
	r.mu.Unlock()
}

// Snapshot returns a copy of the currently open connections.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		snapshot = append(snapshot, client)
	}
	return snapshot
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
