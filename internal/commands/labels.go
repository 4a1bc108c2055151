package commands

import (
	"context"

	"github.com/hearthlabs/hearth-core/internal/registry"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

func labelCommands(deps Deps) []*socket.Command {
	return []*socket.Command{
		{
			Type: "config/label_registry/list",
			Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
				return deps.Labels.List(), nil
			},
		},
		{
			Type:         "config/label_registry/create",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "name", Kind: socket.KindString, Required: true},
				{Name: "color", Kind: socket.KindString},
				{Name: "icon", Kind: socket.KindString},
				{Name: "description", Kind: socket.KindString},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				return deps.Labels.Create(registry.LabelCreate{
					Name:        msg.String("name"),
					Color:       msg.String("color"),
					Icon:        msg.String("icon"),
					Description: msg.String("description"),
				})
			},
		},
		{
			Type:         "config/label_registry/update",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "label_id", Kind: socket.KindString, Required: true},
				{Name: "name", Kind: socket.KindString},
				{Name: "color", Kind: socket.KindString},
				{Name: "icon", Kind: socket.KindString},
				{Name: "description", Kind: socket.KindString},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				var params registry.LabelUpdate
				if v, ok := msg.OptionalString("name"); ok {
					params.Name = &v
				}
				if v, ok := msg.OptionalString("color"); ok {
					params.Color = &v
				}
				if v, ok := msg.OptionalString("icon"); ok {
					params.Icon = &v
				}
				if v, ok := msg.OptionalString("description"); ok {
					params.Description = &v
				}
				return deps.Labels.Update(msg.String("label_id"), params)
			},
		},
		{
			Type:         "config/label_registry/delete",
			RequireAdmin: true,
			Schema: socket.Schema{
				{Name: "label_id", Kind: socket.KindString, Required: true},
			},
			Handler: func(_ context.Context, _ *socket.Connection, msg *socket.Message) (any, error) {
				if err := deps.Labels.Delete(msg.String("label_id")); err != nil {
					return nil, err
				}
				return "success", nil
			},
		},
	}
}
