package integration

import (
	"context"
	"fmt"

	"github.com/hearthlabs/hearth-core/internal/socket"
)

// Integration is a vendor bridge or service plugged into the hub. Setup
// runs once during sequential startup; Close runs during shutdown in
// reverse setup order.
type Integration interface {
	Name() string
	Setup(ctx context.Context, ictx *Context) error
	Close(ctx context.Context) error
}

// Manager owns integration lifecycle and the shared capability command.
type Manager struct {
	ictx         *Context
	integrations []Integration
}

// NewManager creates a manager and registers the cross-integration
// commands on the context's command registry.
func NewManager(ictx *Context) (*Manager, error) {
	m := &Manager{ictx: ictx}
	err := ictx.RegisterCommand(&socket.Command{
		Type: "integration/device_info",
		Schema: socket.Schema{
			{Name: "integration", Kind: socket.KindString, Required: true},
			{Name: "device_id", Kind: socket.KindString, Required: true},
		},
		Handler: m.handleDeviceInfo,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Add queues an integration for setup.
func (m *Manager) Add(i Integration) {
	m.integrations = append(m.integrations, i)
}

// SetupAll runs Setup on every integration in order. The first failure
// aborts startup.
func (m *Manager) SetupAll(ctx context.Context) error {
	for _, i := range m.integrations {
		m.ictx.logger.Info("setting up integration", "integration", i.Name())
		if err := i.Setup(ctx, m.ictx); err != nil {
			return fmt.Errorf("integration %s setup: %w", i.Name(), err)
		}
	}
	return nil
}

// CloseAll shuts integrations down in reverse setup order. Errors are
// logged, not propagated, so one failure never blocks the rest.
func (m *Manager) CloseAll(ctx context.Context) {
	for i := len(m.integrations) - 1; i >= 0; i-- {
		integ := m.integrations[i]
		if err := integ.Close(ctx); err != nil {
			m.ictx.logger.Warn("integration close failed", "integration", integ.Name(), "error", err)
		}
	}
}

func (m *Manager) handleDeviceInfo(ctx context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
	name := msg.String("integration")
	provider, ok := m.ictx.DeviceInfoProviderFor(name)
	if !ok {
		return nil, socket.NewError(socket.ErrCodeNotFound, "integration %s provides no device info", name)
	}
	info, err := provider.DeviceInfo(ctx, msg.String("device_id"))
	if err != nil {
		return nil, err
	}
	return info, nil
}
