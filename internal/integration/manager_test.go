package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

type fakeIntegration struct {
	name     string
	setupErr error
	setups   *[]string
	closes   *[]string
}

func (f *fakeIntegration) Name() string { return f.name }

func (f *fakeIntegration) Setup(_ context.Context, _ *Context) error {
	*f.setups = append(*f.setups, f.name)
	return f.setupErr
}

func (f *fakeIntegration) Close(_ context.Context) error {
	*f.closes = append(*f.closes, f.name)
	return nil
}

type staticProvider map[string]any

func (p staticProvider) DeviceInfo(_ context.Context, _ string) (map[string]any, error) {
	return p, nil
}

func testManager(t *testing.T) (*Manager, *Context, *socket.Registry) {
	t.Helper()
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	commands := socket.NewRegistry()
	ictx := NewContext(ContextDeps{Logger: log, Commands: commands})
	m, err := NewManager(ictx)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, ictx, commands
}

func TestManager_SetupAndCloseOrder(t *testing.T) {
	m, _, _ := testManager(t)
	var setups, closes []string
	m.Add(&fakeIntegration{name: "a", setups: &setups, closes: &closes})
	m.Add(&fakeIntegration{name: "b", setups: &setups, closes: &closes})

	if err := m.SetupAll(context.Background()); err != nil {
		t.Fatalf("SetupAll: %v", err)
	}
	m.CloseAll(context.Background())

	if setups[0] != "a" || setups[1] != "b" {
		t.Errorf("setup order = %v", setups)
	}
	if closes[0] != "b" || closes[1] != "a" {
		t.Errorf("close order = %v, want reverse of setup", closes)
	}
}

func TestManager_SetupFailureAborts(t *testing.T) {
	m, _, _ := testManager(t)
	var setups, closes []string
	boom := errors.New("modem on fire")
	m.Add(&fakeIntegration{name: "a", setupErr: boom, setups: &setups, closes: &closes})
	m.Add(&fakeIntegration{name: "b", setups: &setups, closes: &closes})

	err := m.SetupAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("SetupAll error = %v", err)
	}
	if len(setups) != 1 {
		t.Errorf("later integrations must not set up after a failure, got %v", setups)
	}
}

func TestContext_DuplicateProvider(t *testing.T) {
	_, ictx, _ := testManager(t)
	if err := ictx.RegisterDeviceInfoProvider("x", staticProvider{}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := ictx.RegisterDeviceInfoProvider("x", staticProvider{}); err == nil {
		t.Fatal("duplicate provider registration should fail")
	}
}

func TestDeviceInfoCommand(t *testing.T) {
	_, ictx, commands := testManager(t)
	if err := ictx.RegisterDeviceInfoProvider("demo", staticProvider{"model": "SIM"}); err != nil {
		t.Fatalf("register provider: %v", err)
	}

	cmd, ok := commands.Lookup("integration/device_info")
	if !ok {
		t.Fatal("integration/device_info not registered")
	}

	fields, wireErr := cmd.Schema.Validate(map[string]any{
		"integration": "demo",
		"device_id":   "dev1",
	})
	if wireErr != nil {
		t.Fatalf("schema: %v", wireErr)
	}
	result, err := cmd.Handler(context.Background(), nil, &socket.Message{ID: 1, Type: cmd.Type, Fields: fields})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	info, ok := result.(map[string]any)
	if !ok || info["model"] != "SIM" {
		t.Errorf("result = %+v", result)
	}

	fields["integration"] = "ghost"
	_, err = cmd.Handler(context.Background(), nil, &socket.Message{ID: 2, Type: cmd.Type, Fields: fields})
	var coded *socket.Error
	if !errors.As(err, &coded) || coded.Code != socket.ErrCodeNotFound {
		t.Errorf("unknown integration error = %v, want not_found", err)
	}
}
