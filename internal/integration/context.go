package integration

import (
	"fmt"
	"sync"

	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/events"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/mqtt"
	"github.com/hearthlabs/hearth-core/internal/registry"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

// Context is the typed surface handed to every integration's Setup. It
// replaces ad-hoc global lookups: each registry and service has a typed
// accessor, and capabilities are registered against known interfaces.
type Context struct {
	logger   *logging.Logger
	bus      *events.Bus
	areas    *registry.AreaRegistry
	floors   *registry.FloorRegistry
	labels   *registry.LabelRegistry
	devices  *device.Registry
	commands *socket.Registry
	mqtt     *mqtt.Client

	mu        sync.RWMutex
	providers map[string]DeviceInfoProvider
}

// ContextDeps carries the services wired into an integration Context.
type ContextDeps struct {
	Logger   *logging.Logger
	Bus      *events.Bus
	Areas    *registry.AreaRegistry
	Floors   *registry.FloorRegistry
	Labels   *registry.LabelRegistry
	Devices  *device.Registry
	Commands *socket.Registry
	MQTT     *mqtt.Client
}

// NewContext creates an integration context.
func NewContext(deps ContextDeps) *Context {
	return &Context{
		logger:    deps.Logger,
		bus:       deps.Bus,
		areas:     deps.Areas,
		floors:    deps.Floors,
		labels:    deps.Labels,
		devices:   deps.Devices,
		commands:  deps.Commands,
		mqtt:      deps.MQTT,
		providers: make(map[string]DeviceInfoProvider),
	}
}

// Logger returns the hub logger.
func (c *Context) Logger() *logging.Logger { return c.logger }

// Bus returns the event bus.
func (c *Context) Bus() *events.Bus { return c.bus }

// Areas returns the area registry.
func (c *Context) Areas() *registry.AreaRegistry { return c.areas }

// Floors returns the floor registry.
func (c *Context) Floors() *registry.FloorRegistry { return c.floors }

// Labels returns the label registry.
func (c *Context) Labels() *registry.LabelRegistry { return c.labels }

// Devices returns the device registry.
func (c *Context) Devices() *device.Registry { return c.devices }

// MQTT returns the broker client, nil when MQTT is not configured.
func (c *Context) MQTT() *mqtt.Client { return c.mqtt }

// RegisterCommand adds a socket command on behalf of an integration.
func (c *Context) RegisterCommand(cmd *socket.Command) error {
	return c.commands.Register(cmd)
}

// RegisterDeviceInfoProvider registers a capability under an integration
// name. A second registration for the same name is an error.
func (c *Context) RegisterDeviceInfoProvider(name string, p DeviceInfoProvider) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.providers[name]; exists {
		return fmt.Errorf("device info provider %s already registered", name)
	}
	c.providers[name] = p
	return nil
}

// DeviceInfoProviderFor returns the capability registered under a name.
func (c *Context) DeviceInfoProviderFor(name string) (DeviceInfoProvider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.providers[name]
	return p, ok
}
