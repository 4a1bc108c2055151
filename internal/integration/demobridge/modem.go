package demobridge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ModemConfig is the connection configuration for the bridge modem.
type ModemConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ModemClient is the opaque vendor SDK surface the bridge drives. All
// calls may block on device I/O and honour context cancellation.
type ModemClient interface {
	Connect(ctx context.Context, cfg ModemConfig) error
	Disconnect(ctx context.Context) error
	Send(ctx context.Context, deviceAddress string, command map[string]any) error
	Info(ctx context.Context) (map[string]any, error)
}

// SimulatedModem is an in-process ModemClient used when no physical
// modem is attached, and by tests.
type SimulatedModem struct {
	mu        sync.Mutex
	connected bool
	cfg       ModemConfig

	// ConnectDelay simulates modem handshake latency.
	ConnectDelay time.Duration
	// FailHosts lists hosts Connect refuses, for exercising rollback.
	FailHosts []string
}

// NewSimulatedModem creates a disconnected simulated modem.
func NewSimulatedModem() *SimulatedModem {
	return &SimulatedModem{}
}

// Connect establishes the simulated modem link.
func (m *SimulatedModem) Connect(ctx context.Context, cfg ModemConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("modem host is required")
	}
	for _, h := range m.FailHosts {
		if h == cfg.Host {
			return fmt.Errorf("modem at %s:%d is unreachable", cfg.Host, cfg.Port)
		}
	}

	if m.ConnectDelay > 0 {
		select {
		case <-time.After(m.ConnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	m.cfg = cfg
	return nil
}

// Disconnect drops the simulated link. Disconnecting twice is a no-op.
func (m *SimulatedModem) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// Send delivers a command to a device behind the modem.
func (m *SimulatedModem) Send(_ context.Context, deviceAddress string, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("modem not connected")
	}
	if deviceAddress == "" {
		return fmt.Errorf("device address is required")
	}
	return nil
}

// Info reports modem identity and firmware details.
func (m *SimulatedModem) Info(_ context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("modem not connected")
	}
	return map[string]any{
		"model":    "SIM-2448",
		"firmware": "9.2",
		"host":     m.cfg.Host,
		"port":     m.cfg.Port,
	}, nil
}

// Connected reports the simulated link state.
func (m *SimulatedModem) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}
