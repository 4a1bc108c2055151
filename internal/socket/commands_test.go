package socket

import (
	"context"
	"errors"
	"testing"

	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

func noopHandler(_ context.Context, _ *Connection, _ *Message) (any, error) {
	return nil, nil
}

func TestRegistry_DuplicateCommand(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&Command{Type: "ping", Handler: noopHandler}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := reg.Register(&Command{Type: "ping", Handler: noopHandler}); err == nil {
		t.Fatal("duplicate Register should fail")
	}
	if len(reg.Types()) != 1 {
		t.Errorf("Types() = %v, want one entry", reg.Types())
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Lookup("nope"); ok {
		t.Error("Lookup of unregistered command should miss")
	}
	if err := reg.Register(&Command{Type: "ping", Handler: noopHandler}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	cmd, ok := reg.Lookup("ping")
	if !ok || cmd.Type != "ping" {
		t.Errorf("Lookup = %v, %v", cmd, ok)
	}
}

func TestRegistry_RejectsEmptyOrNil(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&Command{Handler: noopHandler}); err == nil {
		t.Error("empty type should fail")
	}
	if err := reg.Register(&Command{Type: "x"}); err == nil {
		t.Error("nil handler should fail")
	}
}

func testConn(t *testing.T, role auth.Role) *Connection {
	t.Helper()
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	srv := NewServer(config.SocketConfig{SendBuffer: 16}, "secret", "test", NewRegistry(), log)
	c := newConnection(srv, nil)
	c.role = role
	return c
}

func TestRequireAdmin(t *testing.T) {
	called := false
	handler := RequireAdmin(func(_ context.Context, _ *Connection, _ *Message) (any, error) {
		called = true
		return "ok", nil
	})
	msg := &Message{ID: 1, Type: "secret/op"}

	_, err := handler(context.Background(), testConn(t, auth.RoleUser), msg)
	var wireErr *Error
	if !errors.As(err, &wireErr) || wireErr.Code != ErrCodeUnauthorized {
		t.Fatalf("non-admin error = %v, want unauthorized", err)
	}
	if called {
		t.Fatal("handler must not run for non-admin")
	}

	result, err := handler(context.Background(), testConn(t, auth.RoleAdmin), msg)
	if err != nil || result != "ok" {
		t.Errorf("admin call = %v, %v", result, err)
	}

	if _, err := handler(context.Background(), testConn(t, auth.RoleOwner), msg); err != nil {
		t.Errorf("owner call error = %v", err)
	}
}

func TestTranslateErrors(t *testing.T) {
	sentinel := errors.New("name taken")
	translate := func(err error) *Error {
		if errors.Is(err, sentinel) {
			return NewError(ErrCodeInvalidInfo, "%s", err)
		}
		return nil
	}

	run := func(handlerErr error) (any, error) {
		h := TranslateErrors(translate)(func(_ context.Context, _ *Connection, _ *Message) (any, error) {
			return nil, handlerErr
		})
		return h(context.Background(), nil, &Message{ID: 1})
	}

	_, err := run(sentinel)
	var wireErr *Error
	if !errors.As(err, &wireErr) || wireErr.Code != ErrCodeInvalidInfo {
		t.Errorf("translated error = %v, want invalid_info", err)
	}

	coded := NewError(ErrCodeNotFound, "gone")
	_, err = run(coded)
	if !errors.As(err, &wireErr) || wireErr != coded {
		t.Errorf("coded error should pass through, got %v", err)
	}

	plain := errors.New("disk on fire")
	_, err = run(plain)
	if !errors.Is(err, plain) {
		t.Errorf("unrecognised error should fall through, got %v", err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, c *Connection, m *Message) (any, error) {
				order = append(order, name)
				return next(ctx, c, m)
			}
		}
	}
	h := Chain(func(_ context.Context, _ *Connection, _ *Message) (any, error) {
		order = append(order, "handler")
		return nil, nil
	}, mw("first"), mw("second"))

	if _, err := h(context.Background(), nil, &Message{}); err != nil {
		t.Fatalf("chain error: %v", err)
	}
	want := []string{"first", "second", "handler"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
