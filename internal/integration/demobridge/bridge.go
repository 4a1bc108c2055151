package demobridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/integration"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

// connectTimeout bounds each modem connect attempt. The dispatcher never
// times commands out; the adapter owns its own deadline.
const connectTimeout = 30 * time.Second

// Bridge is a vendor integration driving devices behind a modem. It
// demonstrates the bridge shape: an opaque async client, commands for
// reconfiguration, and a registered device info capability.
type Bridge struct {
	client  ModemClient
	logger  *logging.Logger
	devices *device.Registry

	// mu guards cfg and the modem link across the connect and
	// disconnect suspension points, so concurrent config updates
	// serialise instead of interleaving half-applied state.
	mu  sync.Mutex
	cfg ModemConfig
}

// New creates the bridge around a modem client.
func New(client ModemClient, cfg ModemConfig) *Bridge {
	return &Bridge{client: client, cfg: cfg}
}

// Name implements integration.Integration.
func (b *Bridge) Name() string { return "demobridge" }

// Setup connects the modem and registers the bridge's commands and
// capabilities.
func (b *Bridge) Setup(ctx context.Context, ictx *integration.Context) error {
	b.logger = ictx.Logger().With("integration", "demobridge")
	b.devices = ictx.Devices()

	b.mu.Lock()
	err := b.connectLocked(ctx, b.cfg)
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("connecting modem: %w", err)
	}

	if err := ictx.RegisterDeviceInfoProvider("demobridge", b); err != nil {
		return err
	}
	return ictx.RegisterCommand(&socket.Command{
		Type:         "demobridge/config/update",
		RequireAdmin: true,
		Schema: socket.Schema{
			{Name: "host", Kind: socket.KindString, Required: true},
			{Name: "port", Kind: socket.KindInt, Required: true},
		},
		Handler: b.handleConfigUpdate,
	})
}

// Close disconnects the modem.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client.Disconnect(ctx)
}

// Config returns the active modem configuration.
func (b *Bridge) Config() ModemConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// UpdateModemConfig reconnects the modem with a new configuration. On
// failure the previous configuration is reconnected; the rollback
// outcome is logged but the returned error is always the new-config
// failure, since the caller asked about the new config, not the old one.
func (b *Bridge) UpdateModemConfig(ctx context.Context, cfg ModemConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.client.Disconnect(ctx); err != nil {
		b.logger.Warn("modem disconnect before reconfigure failed", "error", err)
	}

	if err := b.connectLocked(ctx, cfg); err != nil {
		b.logger.Error("modem reconfigure failed", "host", cfg.Host, "port", cfg.Port, "error", err)
		if rbErr := b.connectLocked(ctx, b.cfg); rbErr != nil {
			b.logger.Error("rollback to previous modem config failed", "host", b.cfg.Host, "error", rbErr)
		} else {
			b.logger.Info("restored previous modem config", "host", b.cfg.Host)
		}
		return err
	}

	b.cfg = cfg
	b.logger.Info("modem reconfigured", "host", cfg.Host, "port", cfg.Port)
	return nil
}

// connectLocked dials the modem with the adapter's connect timeout.
// Callers hold b.mu.
func (b *Bridge) connectLocked(ctx context.Context, cfg ModemConfig) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return b.client.Connect(ctx, cfg)
}

// DeviceInfo implements integration.DeviceInfoProvider: modem details
// plus the hub's record of the device.
func (b *Bridge) DeviceInfo(ctx context.Context, deviceID string) (map[string]any, error) {
	d, err := b.devices.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	modem, err := b.client.Info(ctx)
	if err != nil {
		return nil, socket.NewError(socket.ErrCodeHubError, "modem info unavailable: %s", err)
	}

	return map[string]any{
		"device_id": d.ID,
		"name":      d.Name,
		"protocol":  d.Protocol,
		"address":   d.Address,
		"modem":     modem,
	}, nil
}

func (b *Bridge) handleConfigUpdate(ctx context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
	cfg := ModemConfig{Host: msg.String("host"), Port: msg.Int("port")}
	if err := b.UpdateModemConfig(ctx, cfg); err != nil {
		return nil, socket.NewError(socket.ErrCodeHubError, "modem reconfigure failed: %s", err)
	}
	return b.Config(), nil
}
