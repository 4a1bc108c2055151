package socket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthlabs/hearth-core/internal/auth"
)

// authenticate runs the handshake: exactly one auth frame is accepted
// within the auth timeout. Any other frame is a protocol violation and
// closes the connection without revealing which commands exist.
func (s *Server) authenticate(c *Connection) bool {
	authWait := time.Duration(s.cfg.AuthTimeout) * time.Second
	//nolint:errcheck // best-effort deadline on a fresh connection
	c.conn.SetReadDeadline(time.Now().Add(authWait))

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		c.logger.Debug("connection closed before auth", "error", err)
		return false
	}

	var frame authFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type != TypeAuth {
		c.sendJSON(serverFrame{Type: TypeAuthInvalid, Message: "auth message expected"})
		return false
	}

	claims, err := auth.ParseToken(frame.AccessToken, s.jwtSecret)
	if err != nil {
		c.logger.Warn("auth failed", "error", err)
		c.sendJSON(serverFrame{Type: TypeAuthInvalid, Message: "invalid access token"})
		return false
	}

	c.userID = claims.Subject
	c.role = claims.Role
	return true
}

// readLoop reads command frames until the transport closes. Frames are
// dispatched in arrival order; handlers run as goroutines and may
// complete out of order, so every response carries its request id.
func (s *Server) readLoop(c *Connection) {
	c.conn.SetReadLimit(int64(s.cfg.MaxMessageSize))
	keepAlive := time.Duration(s.cfg.PingInterval+s.cfg.PongTimeout) * time.Second
	//nolint:errcheck // best-effort deadline
	c.conn.SetReadDeadline(time.Now().Add(keepAlive))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(keepAlive))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("socket read error", "error", err)
			} else {
				c.logger.Debug("socket closed", "error", err)
			}
			return
		}
		//nolint:errcheck // any client frame resets the keep-alive window
		c.conn.SetReadDeadline(time.Now().Add(keepAlive))
		s.dispatch(c, data)
	}
}

// dispatch decodes one frame and routes it: protocol errors fail the
// single request, never the connection.
func (s *Server) dispatch(c *Connection, data []byte) {
	msg, wireErr := ParseMessage(data)
	if wireErr != nil {
		c.SendError(0, wireErr)
		return
	}

	// Request ids must increase so a client can never reuse a live
	// subscription id.
	if msg.ID <= c.lastID {
		c.SendError(msg.ID, NewError(ErrCodeInvalidFormat, "id values must increase, last was %d", c.lastID))
		return
	}
	c.lastID = msg.ID

	cmd, ok := s.commands.Lookup(msg.Type)
	if !ok {
		c.SendError(msg.ID, NewError(ErrCodeUnknownCommand, "unknown command %s", msg.Type))
		return
	}

	normalised, wireErr := cmd.Schema.Validate(msg.Fields)
	if wireErr != nil {
		c.SendError(msg.ID, wireErr)
		return
	}
	msg.Fields = normalised

	middlewares := make([]Middleware, 0, 2)
	if cmd.RequireAdmin {
		middlewares = append(middlewares, RequireAdmin)
	}
	middlewares = append(middlewares, TranslateErrors(s.translate))
	handler := Chain(cmd.Handler, middlewares...)

	s.dispatched.Add(1)
	go s.runHandler(c, handler, msg)
}

// runHandler invokes the handler chain and sends the terminal result
// frame. Panics and untranslated errors become unknown_error so one bad
// command never takes down the connection.
func (s *Server) runHandler(c *Connection, handler Handler, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic", "command", msg.Type, "id", msg.ID, "panic", r)
			c.SendError(msg.ID, NewError(ErrCodeUnknown, "internal error"))
		}
	}()

	result, err := handler(c.ctx, c, msg)
	if err != nil {
		if wireErr, ok := err.(*Error); ok { //nolint:errorlint // TranslateErrors already unwrapped
			c.SendError(msg.ID, wireErr)
			return
		}
		c.logger.Error("handler failed", "command", msg.Type, "id", msg.ID, "error", err)
		c.SendError(msg.ID, NewError(ErrCodeUnknown, "internal error"))
		return
	}
	c.SendResult(msg.ID, result)
}
