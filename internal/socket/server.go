package socket

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

// StatsRecorder receives connection gauge updates for telemetry.
type StatsRecorder interface {
	WriteConnectionStats(active int, dispatched uint64)
}

// Server accepts command socket connections, runs the auth handshake,
// and dispatches frames through the command registry.
type Server struct {
	cfg       config.SocketConfig
	jwtSecret string
	version   string
	commands  *Registry
	logger    *logging.Logger

	translate ErrorTranslator
	stats     StatsRecorder

	mu    sync.RWMutex
	conns map[*Connection]struct{}

	dispatched atomic.Uint64
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Token auth happens inside the socket; origin is not trusted.
		return true
	},
}

// NewServer creates a command socket server.
func NewServer(cfg config.SocketConfig, jwtSecret, version string, commands *Registry, logger *logging.Logger) *Server {
	return &Server{
		cfg:       cfg,
		jwtSecret: jwtSecret,
		version:   version,
		commands:  commands,
		logger:    logger.With("component", "socket"),
		conns:     make(map[*Connection]struct{}),
	}
}

// SetErrorTranslator installs the domain error mapping applied to every
// handler. Call before serving.
func (s *Server) SetErrorTranslator(t ErrorTranslator) { s.translate = t }

// SetStats installs a telemetry recorder for connection counts.
func (s *Server) SetStats(r StatsRecorder) { s.stats = r }

// Routes mounts the socket endpoint on a chi router.
func (s *Server) Routes(r chi.Router) {
	r.Get(s.cfg.Path, s.HandleSocket)
}

// HandleSocket upgrades the HTTP request and serves the connection until
// it closes. Authentication happens inside the socket, not on the HTTP
// request.
func (s *Server) HandleSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("socket upgrade failed", "error", err)
		return
	}

	conn := newConnection(s, wsConn)
	s.register(conn)
	defer conn.Close()

	go conn.writePump(s.cfg)

	conn.sendJSON(serverFrame{Type: TypeAuthRequired, Version: s.version})
	if !s.authenticate(conn) {
		return
	}
	conn.sendJSON(serverFrame{Type: TypeAuthOK, Version: s.version})
	conn.logger.Info("connection authenticated", "user_id", conn.userID, "role", conn.role)

	s.readLoop(conn)
}

// ConnectionCount returns the number of live connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Dispatched returns the total number of commands dispatched since start.
func (s *Server) Dispatched() uint64 {
	return s.dispatched.Load()
}

// Shutdown closes every live connection, running their subscription
// cleanups.
func (s *Server) Shutdown() {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("connection opened", "connections", s.ConnectionCount())
	s.recordStats()
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.logger.Debug("connection closed", "connections", s.ConnectionCount())
	s.recordStats()
}

func (s *Server) recordStats() {
	if s.stats == nil {
		return
	}
	s.stats.WriteConnectionStats(s.ConnectionCount(), s.dispatched.Load())
}
