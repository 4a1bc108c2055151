package registry

import (
	"encoding/json"
	"time"
)

// FloorRegistry manages the floor registry.
type FloorRegistry struct {
	store *Store[*Floor]
}

// NewFloorRegistry creates the floor registry. Call Load before serving.
func NewFloorRegistry(deps Deps) *FloorRegistry {
	return &FloorRegistry{store: NewStore(Config[*Floor]{
		Domain: "floor",
		Decode: func(payload []byte) (*Floor, error) {
			var f Floor
			if err := json.Unmarshal(payload, &f); err != nil {
				return nil, err
			}
			return &f, nil
		},
		Bus:         deps.Bus,
		Persistence: deps.Persistence,
		SaveDelay:   deps.SaveDelay,
		Logger:      deps.Logger,
	})}
}

// FloorCreate holds the fields accepted when creating a floor.
type FloorCreate struct {
	Name    string
	Level   int
	Icon    string
	Aliases []string
}

// FloorUpdate holds the fields accepted when updating a floor.
// Nil fields retain their prior value.
type FloorUpdate struct {
	Name    *string
	Level   *int
	Icon    *string
	Aliases *[]string
}

// Load restores persisted floors.
func (r *FloorRegistry) Load() error { return r.store.Load() }

// Create adds a new floor. The id is slugified from the name, so
// "First floor" becomes "first_floor".
func (r *FloorRegistry) Create(params FloorCreate) (*Floor, error) {
	now := time.Now().UTC()
	created, err := r.store.Create(params.Name, func(id string) *Floor {
		return &Floor{
			ID:         id,
			Name:       params.Name,
			Level:      params.Level,
			Icon:       params.Icon,
			Aliases:    append([]string(nil), params.Aliases...),
			CreatedAt:  now,
			ModifiedAt: now,
		}
	})
	if err != nil {
		return nil, err
	}
	return created.clone(), nil
}

// Get returns a copy of the floor with the given id.
func (r *FloorRegistry) Get(id string) (*Floor, error) {
	f, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	return f.clone(), nil
}

// List returns copies of all floors in insertion order.
func (r *FloorRegistry) List() []*Floor {
	all := r.store.List()
	out := make([]*Floor, len(all))
	for i, f := range all {
		out[i] = f.clone()
	}
	return out
}

// Update applies a partial update. The id never changes, even on rename.
func (r *FloorRegistry) Update(id string, params FloorUpdate) (*Floor, error) {
	updated, err := r.store.Update(id, func(current *Floor) (*Floor, error) {
		next := current.clone()
		if params.Name != nil {
			next.Name = *params.Name
		}
		if params.Level != nil {
			next.Level = *params.Level
		}
		if params.Icon != nil {
			next.Icon = *params.Icon
		}
		if params.Aliases != nil {
			next.Aliases = append([]string(nil), (*params.Aliases)...)
		}
		next.ModifiedAt = time.Now().UTC()
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return updated.clone(), nil
}

// Delete removes a floor and fires cascade hooks.
func (r *FloorRegistry) Delete(id string) error { return r.store.Delete(id) }

// OnRemove registers a cascade hook run after a floor is deleted.
func (r *FloorRegistry) OnRemove(hook func(floorID string)) { r.store.OnRemove(hook) }

// Flush forces any pending persistence write.
func (r *FloorRegistry) Flush() { r.store.Flush() }

// Close flushes and stops the debounce timer.
func (r *FloorRegistry) Close() { r.store.Close() }
