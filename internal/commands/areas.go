package commands

import (
	"context"

	"github.com/hearthlabs/hearth-core/internal/registry"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

func areaCommands(deps Deps) []*socket.Command {
	return []*socket.Command{
		{
			Type: "config/area_registry/list",
			Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
				return deps.Areas.List(), nil
			},
		},
		{
			Type:         "config/area_registry/create",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "name", Kind: socket.KindString, Required: true},
				{Name: "floor_id", Kind: socket.KindString},
				{Name: "icon", Kind: socket.KindString},
				{Name: "picture", Kind: socket.KindString},
				{Name: "aliases", Kind: socket.KindStringList},
				{Name: "labels", Kind: socket.KindStringList},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				return deps.Areas.Create(registry.AreaCreate{
					Name:    msg.String("name"),
					FloorID: msg.String("floor_id"),
					Icon:    msg.String("icon"),
					Picture: msg.String("picture"),
					Aliases: msg.StringSlice("aliases"),
					Labels:  msg.StringSlice("labels"),
				})
			},
		},
		{
			Type:         "config/area_registry/update",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "area_id", Kind: socket.KindString, Required: true},
				{Name: "name", Kind: socket.KindString},
				{Name: "floor_id", Kind: socket.KindString},
				{Name: "icon", Kind: socket.KindString},
				{Name: "picture", Kind: socket.KindString},
				{Name: "aliases", Kind: socket.KindStringList},
				{Name: "labels", Kind: socket.KindStringList},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				var params registry.AreaUpdate
				if v, ok := msg.OptionalString("name"); ok {
					params.Name = &v
				}
				if v, ok := msg.OptionalString("floor_id"); ok {
					params.FloorID = &v
				}
				if v, ok := msg.OptionalString("icon"); ok {
					params.Icon = &v
				}
				if v, ok := msg.OptionalString("picture"); ok {
					params.Picture = &v
				}
				if v, ok := msg.OptionalStringSlice("aliases"); ok {
					params.Aliases = &v
				}
				if v, ok := msg.OptionalStringSlice("labels"); ok {
					params.Labels = &v
				}
				return deps.Areas.Update(msg.String("area_id"), params)
			},
		},
		{
			Type:         "config/area_registry/delete",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "area_id", Kind: socket.KindString, Required: true},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				if err := deps.Areas.Delete(msg.String("area_id")); err != nil {
					return nil, err
				}
				return "success", nil
			},
		},
	}
}
