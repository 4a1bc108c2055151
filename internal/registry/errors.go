package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors raised by registry operations. Command handlers
// translate these to wire error codes.
var (
	// ErrNotFound indicates the entry id does not exist in the registry.
	ErrNotFound = errors.New("registry entry not found")

	// ErrNameInUse indicates the normalised name collides with an
	// existing entry.
	ErrNameInUse = errors.New("name already in use")

	// ErrEmptyName indicates a create or rename with a blank name.
	ErrEmptyName = errors.New("name must not be empty")
)

// nameInUseError builds the user-facing duplicate-name error, naming
// both the display form and the normalised form that collided.
func nameInUseError(name string) error {
	return fmt.Errorf("the name %s (%s) %w", name, NormalizeName(name), ErrNameInUse)
}
