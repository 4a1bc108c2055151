package socket_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// frame is the loose shape used to decode any server frame in tests.
type frame struct {
	ID      int             `json:"id"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *socket.Error   `json:"error"`
	Event   json.RawMessage `json:"event"`
	Message string          `json:"message"`
}

// testHarness wires a socket server with a few synthetic commands behind
// an httptest server.
type testHarness struct {
	srv        *socket.Server
	httpSrv    *httptest.Server
	dispatched *atomic.Int64
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	reg := socket.NewRegistry()
	dispatched := &atomic.Int64{}

	reg.MustRegister(&socket.Command{
		Type: "ping",
		Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
			dispatched.Add(1)
			return map[string]any{"pong": true}, nil
		},
	})
	reg.MustRegister(&socket.Command{
		Type: "echo",
		Schema: socket.Schema{
			{Name: "value", Kind: socket.KindString, Required: true},
		},
		Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
			return msg.String("value"), nil
		},
	})
	reg.MustRegister(&socket.Command{
		Type: "slow",
		Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
			time.Sleep(150 * time.Millisecond)
			return "done", nil
		},
	})
	reg.MustRegister(&socket.Command{
		Type: "boom",
		Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
			panic("handler bug")
		},
	})
	reg.MustRegister(&socket.Command{
		Type:         "secret/op",
		RequireAdmin: true,
		Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
			dispatched.Add(1)
			return "classified", nil
		},
	})

	srv := socket.NewServer(config.SocketConfig{
		Path:           "/api/socket",
		MaxMessageSize: 8192,
		PingInterval:   30,
		PongTimeout:    10,
		SendBuffer:     64,
		AuthTimeout:    5,
	}, testSecret, "test", reg, log)

	router := chi.NewRouter()
	srv.Routes(router)
	httpSrv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Shutdown()
		httpSrv.Close()
	})

	return &testHarness{srv: srv, httpSrv: httpSrv, dispatched: dispatched}
}

func (h *testHarness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.httpSrv.URL, "http") + "/api/socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func accessToken(t *testing.T, role auth.Role) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(&auth.User{ID: "usr_test01", Role: role}, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	return token
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// authedConn dials and completes the handshake.
func (h *testHarness) authedConn(t *testing.T, role auth.Role) *websocket.Conn {
	t.Helper()
	conn := h.dial(t)
	if f := readFrame(t, conn); f.Type != socket.TypeAuthRequired {
		t.Fatalf("first frame = %q, want auth_required", f.Type)
	}
	sendJSON(t, conn, map[string]any{"type": "auth", "access_token": accessToken(t, role)})
	if f := readFrame(t, conn); f.Type != socket.TypeAuthOK {
		t.Fatalf("auth response = %q, want auth_ok", f.Type)
	}
	return conn
}

func TestHandshakeAndPing(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	sendJSON(t, conn, map[string]any{"id": 1, "type": "ping"})
	f := readFrame(t, conn)
	if f.Type != socket.TypeResult || !f.Success || f.ID != 1 {
		t.Fatalf("ping result = %+v", f)
	}
	var pong map[string]bool
	if err := json.Unmarshal(f.Result, &pong); err != nil || !pong["pong"] {
		t.Errorf("result = %s, want pong true", f.Result)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	readFrame(t, conn) // auth_required

	sendJSON(t, conn, map[string]any{"type": "auth", "access_token": "garbage"})
	f := readFrame(t, conn)
	if f.Type != socket.TypeAuthInvalid {
		t.Fatalf("frame = %q, want auth_invalid", f.Type)
	}
}

func TestPreAuthCommandClosesConnection(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	readFrame(t, conn) // auth_required

	sendJSON(t, conn, map[string]any{"id": 1, "type": "ping"})
	f := readFrame(t, conn)
	if f.Type != socket.TypeAuthInvalid {
		t.Fatalf("frame = %q, want auth_invalid", f.Type)
	}

	// The auth_invalid frame must be flushed before the transport drops,
	// so the client sees a close frame rather than an abnormal closure.
	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("connection should be closed after pre-auth command")
	}
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Errorf("read after auth_invalid = %v, want a close frame", err)
	}
	if h.dispatched.Load() != 0 {
		t.Error("no command may be dispatched before auth")
	}
}

func TestResultCorrelation_OutOfOrder(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	sendJSON(t, conn, map[string]any{"id": 1, "type": "slow"})
	sendJSON(t, conn, map[string]any{"id": 2, "type": "ping"})

	first := readFrame(t, conn)
	second := readFrame(t, conn)
	if first.ID != 2 {
		t.Errorf("first result id = %d, want 2 (fast command completes first)", first.ID)
	}
	if second.ID != 1 || !second.Success {
		t.Errorf("second result = %+v, want id 1 success", second)
	}
}

func TestNonIncreasingIDRejected(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	sendJSON(t, conn, map[string]any{"id": 5, "type": "ping"})
	readFrame(t, conn)

	sendJSON(t, conn, map[string]any{"id": 5, "type": "ping"})
	f := readFrame(t, conn)
	if f.Success || f.Error == nil || f.Error.Code != socket.ErrCodeInvalidFormat {
		t.Fatalf("reused id result = %+v, want invalid_format", f)
	}

	// The connection survives and larger ids still work.
	sendJSON(t, conn, map[string]any{"id": 6, "type": "ping"})
	if f := readFrame(t, conn); !f.Success {
		t.Errorf("id 6 after rejection = %+v", f)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	sendJSON(t, conn, map[string]any{"id": 1, "type": "no/such/command"})
	f := readFrame(t, conn)
	if f.Success || f.Error == nil || f.Error.Code != socket.ErrCodeUnknownCommand {
		t.Fatalf("result = %+v, want unknown_command", f)
	}
}

func TestSchemaFailure(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	sendJSON(t, conn, map[string]any{"id": 1, "type": "echo"})
	f := readFrame(t, conn)
	if f.Success || f.Error == nil || f.Error.Code != socket.ErrCodeInvalidFormat {
		t.Fatalf("result = %+v, want invalid_format", f)
	}
	if !strings.Contains(f.Error.Message, "value") {
		t.Errorf("error message %q should name the failing field", f.Error.Message)
	}
}

func TestAdminGate(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	sendJSON(t, conn, map[string]any{"id": 1, "type": "secret/op"})
	f := readFrame(t, conn)
	if f.Success || f.Error == nil || f.Error.Code != socket.ErrCodeUnauthorized {
		t.Fatalf("result = %+v, want unauthorized", f)
	}
	if h.dispatched.Load() != 0 {
		t.Error("admin handler must not run for non-admin user")
	}

	adminConn := h.authedConn(t, auth.RoleAdmin)
	sendJSON(t, adminConn, map[string]any{"id": 1, "type": "secret/op"})
	if f := readFrame(t, adminConn); !f.Success {
		t.Errorf("admin call = %+v", f)
	}
}

func TestPanicBecomesUnknownError(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	sendJSON(t, conn, map[string]any{"id": 1, "type": "boom"})
	f := readFrame(t, conn)
	if f.Success || f.Error == nil || f.Error.Code != socket.ErrCodeUnknown {
		t.Fatalf("result = %+v, want unknown_error", f)
	}

	// One bad command never takes down the connection.
	sendJSON(t, conn, map[string]any{"id": 2, "type": "ping"})
	if f := readFrame(t, conn); !f.Success {
		t.Errorf("ping after panic = %+v", f)
	}
}

func TestMalformedJSONFailsRequestOnly(t *testing.T) {
	h := newHarness(t)
	conn := h.authedConn(t, auth.RoleUser)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := readFrame(t, conn)
	if f.Success || f.Error == nil || f.Error.Code != socket.ErrCodeInvalidFormat {
		t.Fatalf("result = %+v, want invalid_format", f)
	}

	sendJSON(t, conn, map[string]any{"id": 1, "type": "ping"})
	if f := readFrame(t, conn); !f.Success {
		t.Errorf("ping after malformed frame = %+v", f)
	}
}

func TestConnectionCount(t *testing.T) {
	h := newHarness(t)
	if h.srv.ConnectionCount() != 0 {
		t.Fatalf("initial count = %d", h.srv.ConnectionCount())
	}
	conn := h.authedConn(t, auth.RoleUser)
	if h.srv.ConnectionCount() != 1 {
		t.Errorf("count after connect = %d, want 1", h.srv.ConnectionCount())
	}
	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for h.srv.ConnectionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
