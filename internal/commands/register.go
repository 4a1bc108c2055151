package commands

import (
	"context"
	"errors"

	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/events"
	"github.com/hearthlabs/hearth-core/internal/registry"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

// Deps carries the registries and bus the command handlers close over.
type Deps struct {
	Bus     *events.Bus
	Areas   *registry.AreaRegistry
	Floors  *registry.FloorRegistry
	Labels  *registry.LabelRegistry
	Devices *device.Registry
}

// RegisterAll installs the built-in command surface on a socket registry.
// Called once at startup.
func RegisterAll(reg *socket.Registry, deps Deps) error {
	groups := [][]*socket.Command{
		builtinCommands(deps),
		areaCommands(deps),
		floorCommands(deps),
		labelCommands(deps),
		deviceCommands(deps),
	}
	for _, group := range groups {
		for _, cmd := range group {
			if err := reg.Register(cmd); err != nil {
				return err
			}
		}
	}
	return nil
}

// Translate maps registry and device errors to wire error codes. The
// registries return plain errors so they stay usable outside the socket;
// the mapping to the protocol taxonomy happens here.
func Translate(err error) *socket.Error {
	switch {
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, device.ErrDeviceNotFound):
		return socket.NewError(socket.ErrCodeNotFound, "%s", err)
	case errors.Is(err, registry.ErrNameInUse),
		errors.Is(err, registry.ErrEmptyName),
		errors.Is(err, device.ErrInvalidDevice),
		errors.Is(err, device.ErrInvalidName),
		errors.Is(err, device.ErrInvalidDomain),
		errors.Is(err, device.ErrInvalidProtocol),
		errors.Is(err, device.ErrInvalidAddress),
		errors.Is(err, device.ErrInvalidState),
		errors.Is(err, device.ErrDeviceExists):
		return socket.NewError(socket.ErrCodeInvalidInfo, "%s", err)
	case errors.Is(err, context.DeadlineExceeded):
		return socket.NewError(socket.ErrCodeTimeout, "operation timed out")
	}
	return nil
}
