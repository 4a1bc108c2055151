package commands

import (
	"context"

	"github.com/hearthlabs/hearth-core/internal/events"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

// builtinCommands are the protocol-level commands every client relies on.
func builtinCommands(deps Deps) []*socket.Command {
	return []*socket.Command{
		{
			Type: "ping",
			Handler: func(_ context.Context, _ *socket.Connection, _ *socket.Message) (any, error) {
				return map[string]any{"pong": true}, nil
			},
		},
		{
			Type: "subscribe_events",
			Schema: socket.Schema{
				{Name: "event_type", Kind: socket.KindString, Default: events.MatchAll},
			},
			Handler: func(_ context.Context, conn *socket.Connection, msg *socket.Message) (any, error) {
				id := msg.ID
				cancel := deps.Bus.Subscribe(msg.String("event_type"), func(e events.Event) {
					conn.SendEvent(id, e)
				})
				if err := conn.Subscribe(id, cancel); err != nil {
					cancel()
					return nil, socket.NewError(socket.ErrCodeInvalidFormat, "%s", err)
				}
				return nil, nil
			},
		},
		{
			Type: "unsubscribe_events",
			Schema: socket.Schema{
				{Name: "subscription", Kind: socket.KindInt, Required: true},
			},
			Handler: func(_ context.Context, conn *socket.Connection, msg *socket.Message) (any, error) {
				conn.Unsubscribe(msg.Int("subscription"))
				return nil, nil
			},
		},
	}
}
