package ws

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport error classification. Gone and forbidden are terminal: the
// socket no longer exists on the transport and callers delete the
// Connection row. Transient failures are logged and the row kept.
var (
	ErrGone      = errors.New("connection gone")
	ErrForbidden = errors.New("connection forbidden")
	ErrTransient = errors.New("transient send failure")
)

// IsTerminal reports whether a post failure should reap the connection.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrGone) || errors.Is(err, ErrForbidden)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxFrame   = 65536
)

// client is one live socket held by this process.
type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

// write pushes one text frame with a bounded deadline. gorilla allows a
// single concurrent writer, so the ping loop and posts share writeMu.
func (c *client) write(deadline time.Time, messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrGone
	}
	c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(messageType, payload)
}

func (c *client) close() {
	c.writeMu.Lock()
	c.closed = true
	c.writeMu.Unlock()
	c.conn.Close()
}

// Hub is the broadcast transport: it maps connectionIds to the sockets this
// process holds and pushes payloads to them. It is not the routing table —
// the Connection registry in the store is; the hub only owns the transport
// endpoints learned at connect time.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

func (h *Hub) add(id string, conn *websocket.Conn) *client {
	cl := &client{id: id, conn: conn}
	h.mu.Lock()
	h.clients[id] = cl
	h.mu.Unlock()
	return cl
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	cl, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	if ok {
		cl.close()
	}
}

// Count reports how many sockets this process currently holds.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Post pushes a payload to one connectionId and classifies the failure.
// ErrGone: the socket is not held here or is already closed. ErrTransient:
// a timeout that may heal. Anything else on write means the peer is gone.
func (h *Hub) Post(ctx context.Context, connectionID string, payload []byte) error {
	h.mu.RLock()
	cl, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return ErrGone
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	err := cl.write(deadline, websocket.TextMessage, payload)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGone) {
		return ErrGone
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTransient
	}

	// Write failed with a hard error: the socket is unusable. Drop it so
	// later posts classify as gone immediately.
	h.remove(connectionID)
	return ErrGone
}

// startPingLoop keeps the socket alive until ctx is cancelled or a ping
// write fails.
func (h *Hub) startPingLoop(ctx context.Context, cl *client) {
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cl.write(time.Now().Add(writeWait), websocket.PingMessage, nil); err != nil {
					log.Printf("[WS] ping failed for connection %s: %v", cl.id, err)
					return
				}
			}
		}
	}()
}
