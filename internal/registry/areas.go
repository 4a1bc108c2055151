package registry

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Deps carries the shared wiring for constructing a registry.
type Deps struct {
	Bus         EventPublisher
	Persistence Persistence
	SaveDelay   time.Duration
	Logger      *slog.Logger
}

// AreaRegistry manages the area registry.
type AreaRegistry struct {
	store *Store[*Area]
}

// NewAreaRegistry creates the area registry. Call Load before serving.
func NewAreaRegistry(deps Deps) *AreaRegistry {
	return &AreaRegistry{store: NewStore(Config[*Area]{
		Domain: "area",
		Decode: func(payload []byte) (*Area, error) {
			var a Area
			if err := json.Unmarshal(payload, &a); err != nil {
				return nil, err
			}
			return &a, nil
		},
		Bus:         deps.Bus,
		Persistence: deps.Persistence,
		SaveDelay:   deps.SaveDelay,
		Logger:      deps.Logger,
	})}
}

// AreaCreate holds the fields accepted when creating an area.
type AreaCreate struct {
	Name    string
	FloorID string
	Icon    string
	Picture string
	Aliases []string
	Labels  []string
}

// AreaUpdate holds the fields accepted when updating an area.
// Nil fields retain their prior value.
type AreaUpdate struct {
	Name    *string
	FloorID *string
	Icon    *string
	Picture *string
	Aliases *[]string
	Labels  *[]string
}

// Load restores persisted areas.
func (r *AreaRegistry) Load() error { return r.store.Load() }

// Create adds a new area. The id is slugified from the name.
func (r *AreaRegistry) Create(params AreaCreate) (*Area, error) {
	now := time.Now().UTC()
	created, err := r.store.Create(params.Name, func(id string) *Area {
		return &Area{
			ID:         id,
			Name:       params.Name,
			FloorID:    params.FloorID,
			Icon:       params.Icon,
			Picture:    params.Picture,
			Aliases:    append([]string(nil), params.Aliases...),
			Labels:     append([]string(nil), params.Labels...),
			CreatedAt:  now,
			ModifiedAt: now,
		}
	})
	if err != nil {
		return nil, err
	}
	return created.clone(), nil
}

// Get returns a copy of the area with the given id.
func (r *AreaRegistry) Get(id string) (*Area, error) {
	a, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	return a.clone(), nil
}

// List returns copies of all areas in insertion order.
func (r *AreaRegistry) List() []*Area {
	all := r.store.List()
	out := make([]*Area, len(all))
	for i, a := range all {
		out[i] = a.clone()
	}
	return out
}

// Update applies a partial update. The id never changes, even on rename.
func (r *AreaRegistry) Update(id string, params AreaUpdate) (*Area, error) {
	updated, err := r.store.Update(id, func(current *Area) (*Area, error) {
		next := current.clone()
		if params.Name != nil {
			next.Name = *params.Name
		}
		if params.FloorID != nil {
			next.FloorID = *params.FloorID
		}
		if params.Icon != nil {
			next.Icon = *params.Icon
		}
		if params.Picture != nil {
			next.Picture = *params.Picture
		}
		if params.Aliases != nil {
			next.Aliases = append([]string(nil), (*params.Aliases)...)
		}
		if params.Labels != nil {
			next.Labels = append([]string(nil), (*params.Labels)...)
		}
		next.ModifiedAt = time.Now().UTC()
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return updated.clone(), nil
}

// Delete removes an area and fires cascade hooks.
func (r *AreaRegistry) Delete(id string) error { return r.store.Delete(id) }

// OnRemove registers a cascade hook run after an area is deleted.
func (r *AreaRegistry) OnRemove(hook func(areaID string)) { r.store.OnRemove(hook) }

// ClearFloor detaches all areas from a deleted floor. Wired as the floor
// registry's OnRemove hook.
func (r *AreaRegistry) ClearFloor(floorID string) {
	for _, a := range r.store.List() {
		if a.FloorID != floorID {
			continue
		}
		empty := ""
		//nolint:errcheck // entry existed a moment ago; a lost race means it was deleted anyway
		r.Update(a.ID, AreaUpdate{FloorID: &empty})
	}
}

// RemoveLabel strips a deleted label from all areas. Wired as the label
// registry's OnRemove hook.
func (r *AreaRegistry) RemoveLabel(labelID string) {
	for _, a := range r.store.List() {
		keep := a.Labels[:0:0]
		removed := false
		for _, l := range a.Labels {
			if l == labelID {
				removed = true
				continue
			}
			keep = append(keep, l)
		}
		if !removed {
			continue
		}
		//nolint:errcheck // see ClearFloor
		r.Update(a.ID, AreaUpdate{Labels: &keep})
	}
}

// Flush forces any pending persistence write.
func (r *AreaRegistry) Flush() { r.store.Flush() }

// Close flushes and stops the debounce timer.
func (r *AreaRegistry) Close() { r.store.Close() }
