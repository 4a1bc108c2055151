package commands

import (
	"context"

	"github.com/hearthlabs/hearth-core/internal/registry"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

func floorCommands(deps Deps) []*socket.Command {
	return []*socket.Command{
		{
			Type: "config/floor_registry/list",
			Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
				return deps.Floors.List(), nil
			},
		},
		{
			Type:         "config/floor_registry/create",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "name", Kind: socket.KindString, Required: true},
				{Name: "level", Kind: socket.KindInt},
				{Name: "icon", Kind: socket.KindString},
				{Name: "aliases", Kind: socket.KindStringList},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				return deps.Floors.Create(registry.FloorCreate{
					Name:    msg.String("name"),
					Level:   msg.Int("level"),
					Icon:    msg.String("icon"),
					Aliases: msg.StringSlice("aliases"),
				})
			},
		},
		{
			Type:         "config/floor_registry/update",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "floor_id", Kind: socket.KindString, Required: true},
				{Name: "name", Kind: socket.KindString},
				{Name: "level", Kind: socket.KindInt},
				{Name: "icon", Kind: socket.KindString},
				{Name: "aliases", Kind: socket.KindStringList},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				var params registry.FloorUpdate
				if v, ok := msg.OptionalString("name"); ok {
					params.Name = &v
				}
				if v, ok := msg.OptionalInt("level"); ok {
					params.Level = &v
				}
				if v, ok := msg.OptionalString("icon"); ok {
					params.Icon = &v
				}
				if v, ok := msg.OptionalStringSlice("aliases"); ok {
					params.Aliases = &v
				}
				return deps.Floors.Update(msg.String("floor_id"), params)
			},
		},
		{
			Type:         "config/floor_registry/delete",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "floor_id", Kind: socket.KindString, Required: true},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				if err := deps.Floors.Delete(msg.String("floor_id")); err != nil {
					return nil, err
				}
				return "success", nil
			},
		},
	}
}
