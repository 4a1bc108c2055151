package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

// Connection is one client session on the command socket. It owns its
// subscription map and outbound queue; all frames leave through a single
// writer goroutine so writes never interleave.
type Connection struct {
	id     string
	server *Server
	conn   *websocket.Conn
	send   chan []byte
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	// Identity set once by the auth handshake.
	userID string
	role   auth.Role

	subMu         sync.Mutex
	subscriptions map[int]func()

	// lastID is touched only by the read loop.
	lastID int
}

func newConnection(server *Server, wsConn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:            uuid.New().String(),
		server:        server,
		conn:          wsConn,
		send:          make(chan []byte, server.cfg.SendBuffer),
		ctx:           ctx,
		cancel:        cancel,
		subscriptions: make(map[int]func()),
	}
	c.logger = server.logger.With("connection_id", c.id[:8])
	return c
}

// ID returns the connection's unique id, used only for logging.
func (c *Connection) ID() string { return c.id }

// UserID returns the authenticated user's id, empty before auth.
func (c *Connection) UserID() string { return c.userID }

// Role returns the authenticated user's role.
func (c *Connection) Role() auth.Role { return c.role }

// Context is cancelled when the connection closes. Handlers doing slow
// work should watch it.
func (c *Connection) Context() context.Context { return c.ctx }

// SendResult enqueues a success result frame for a request id.
func (c *Connection) SendResult(id int, result any) {
	c.sendJSON(resultFrame{ID: id, Type: TypeResult, Success: true, Result: result})
}

// SendError enqueues a failed result frame carrying a coded error.
func (c *Connection) SendError(id int, wireErr *Error) {
	c.sendJSON(resultFrame{ID: id, Type: TypeResult, Success: false, Error: wireErr})
}

// SendEvent enqueues an event frame tied to a prior subscription id.
func (c *Connection) SendEvent(id int, event any) {
	c.sendJSON(eventFrame{ID: id, Type: TypeEvent, Event: event})
}

// Subscribe registers a cleanup callback under a request id. A second
// registration for the same id is an error.
func (c *Connection) Subscribe(id int, cleanup func()) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if _, exists := c.subscriptions[id]; exists {
		return fmt.Errorf("subscription already exists for id %d", id)
	}
	c.subscriptions[id] = cleanup
	return nil
}

// Unsubscribe runs and removes the cleanup for a request id. Calling it
// for an unknown or already-cancelled id is a no-op.
func (c *Connection) Unsubscribe(id int) {
	c.subMu.Lock()
	cleanup, ok := c.subscriptions[id]
	delete(c.subscriptions, id)
	c.subMu.Unlock()
	if ok && cleanup != nil {
		cleanup()
	}
}

// SubscriptionCount returns the number of live subscriptions.
func (c *Connection) SubscriptionCount() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subscriptions)
}

// Close tears the connection down: every remaining subscription cleanup
// runs exactly once and the context is cancelled. The writer goroutine
// observes the cancellation, drains any frames still queued (a terminal
// result or auth_invalid must reach the client), and only then closes
// the transport. Safe to call multiple times.
func (c *Connection) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.subMu.Lock()
	cleanups := make([]func(), 0, len(c.subscriptions))
	for _, cleanup := range c.subscriptions {
		if cleanup != nil {
			cleanups = append(cleanups, cleanup)
		}
	}
	c.subscriptions = make(map[int]func())
	c.subMu.Unlock()

	for _, cleanup := range cleanups {
		cleanup()
	}

	c.cancel()
	c.server.unregister(c)
}

func (c *Connection) sendJSON(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("failed to marshal outbound frame", "error", err)
		return
	}
	c.trySend(data)
}

// trySend enqueues a frame without blocking. Sends after close and sends
// to a slow client with a full buffer are dropped. The channel is never
// closed, so a send racing Close is harmless.
func (c *Connection) trySend(data []byte) {
	if c.closed.Load() {
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("outbound buffer full, dropping frame")
	}
}

// writePump drains the send channel onto the transport and keeps the
// connection alive with protocol pings. It owns the transport: on Close
// it flushes whatever is still queued, sends a close frame, and drops
// the underlying socket. One per connection.
func (c *Connection) writePump(cfg config.SocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			//nolint:errcheck // best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			c.drainAndClose(writeWait)
			return
		}
	}
}

// drainAndClose flushes frames queued before Close, then sends a close
// frame. Runs only from writePump's goroutine.
func (c *Connection) drainAndClose(writeWait time.Duration) {
	for {
		select {
		case data := <-c.send:
			//nolint:errcheck // best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			//nolint:errcheck // best-effort close frame
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			//nolint:errcheck // best-effort close frame
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
