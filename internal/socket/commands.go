package socket

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler is the function bound to a command type. It returns the result
// payload for the success frame, or an error; coded *Error values pass to
// the client unchanged, anything else is translated at dispatch.
type Handler func(ctx context.Context, conn *Connection, msg *Message) (any, error)

// Command binds a type name to its schema, handler, and privilege
// requirement.
type Command struct {
	Type         string
	Schema       Schema
	Handler      Handler
	RequireAdmin bool
}

// Registry is the process-wide command table. Registration happens during
// sequential startup; after that the table is read-only and Lookup may be
// called concurrently from every connection.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command. Registering a type twice is an error.
func (r *Registry) Register(cmd *Command) error {
	if cmd.Type == "" {
		return fmt.Errorf("command type cannot be empty")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[cmd.Type]; exists {
		return fmt.Errorf("command %s already registered", cmd.Type)
	}
	r.commands[cmd.Type] = cmd
	return nil
}

// MustRegister registers a command and panics on error. Startup-only
// convenience for wiring built-in command tables.
func (r *Registry) MustRegister(cmd *Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

// Lookup returns the command registered for a type.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Types returns all registered command types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.commands))
	for t := range r.commands {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
