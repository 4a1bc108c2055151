package commands

import (
	"context"

	"github.com/hearthlabs/hearth-core/internal/socket"
)

func deviceCommands(deps Deps) []*socket.Command {
	return []*socket.Command{
		{
			Type: "config/device_registry/list",
			Handler: func(ctx context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
				return deps.Devices.List(ctx)
			},
		},
		{
			// Assigns a device to an area and labels, or renames it.
			// Device creation belongs to bridges, not clients.
			Type:         "config/device_registry/update",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "device_id", Kind: socket.KindString, Required: true},
				{Name: "name", Kind: socket.KindString},
				{Name: "area_id", Kind: socket.KindString},
				{Name: "labels", Kind: socket.KindStringList},
			},
			Handler: func(ctx context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				d, err := deps.Devices.Get(ctx, msg.String("device_id"))
				if err != nil {
					return nil, err
				}
				if v, ok := msg.OptionalString("name"); ok {
					d.Name = v
				}
				if v, ok := msg.OptionalString("area_id"); ok {
					if v == "" {
						d.AreaID = nil
					} else {
						d.AreaID = &v
					}
				}
				if v, ok := msg.OptionalStringSlice("labels"); ok {
					d.Labels = v
				}
				if err := deps.Devices.Update(ctx, d); err != nil {
					return nil, err
				}
				return deps.Devices.Get(ctx, d.ID)
			},
		},
		{
			Type: "device/state",
			Schema: socket.Schema{
				{Name: "device_id", Kind: socket.KindString, Required: true},
			},
			Handler: func(ctx context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				d, err := deps.Devices.Get(ctx, msg.String("device_id"))
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"device_id":        d.ID,
					"state":            d.State,
					"state_updated_at": d.StateUpdatedAt,
				}, nil
			},
		},
	}
}
