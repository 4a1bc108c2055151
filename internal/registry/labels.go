package registry

import (
	"encoding/json"
	"time"
)

// LabelRegistry manages the label registry.
type LabelRegistry struct {
	store *Store[*Label]
}

// NewLabelRegistry creates the label registry. Call Load before serving.
func NewLabelRegistry(deps Deps) *LabelRegistry {
	return &LabelRegistry{store: NewStore(Config[*Label]{
		Domain: "label",
		Decode: func(payload []byte) (*Label, error) {
			var l Label
			if err := json.Unmarshal(payload, &l); err != nil {
				return nil, err
			}
			return &l, nil
		},
		Bus:         deps.Bus,
		Persistence: deps.Persistence,
		SaveDelay:   deps.SaveDelay,
		Logger:      deps.Logger,
	})}
}

// LabelCreate holds the fields accepted when creating a label.
type LabelCreate struct {
	Name        string
	Color       string
	Icon        string
	Description string
}

// LabelUpdate holds the fields accepted when updating a label.
// Nil fields retain their prior value.
type LabelUpdate struct {
	Name        *string
	Color       *string
	Icon        *string
	Description *string
}

// Load restores persisted labels.
func (r *LabelRegistry) Load() error { return r.store.Load() }

// Create adds a new label. The id is slugified from the name.
func (r *LabelRegistry) Create(params LabelCreate) (*Label, error) {
	now := time.Now().UTC()
	created, err := r.store.Create(params.Name, func(id string) *Label {
		return &Label{
			ID:          id,
			Name:        params.Name,
			Color:       params.Color,
			Icon:        params.Icon,
			Description: params.Description,
			CreatedAt:   now,
			ModifiedAt:  now,
		}
	})
	if err != nil {
		return nil, err
	}
	return created.clone(), nil
}

// Get returns a copy of the label with the given id.
func (r *LabelRegistry) Get(id string) (*Label, error) {
	l, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	return l.clone(), nil
}

// List returns copies of all labels in insertion order.
func (r *LabelRegistry) List() []*Label {
	all := r.store.List()
	out := make([]*Label, len(all))
	for i, l := range all {
		out[i] = l.clone()
	}
	return out
}

// Update applies a partial update. The id never changes, even on rename.
func (r *LabelRegistry) Update(id string, params LabelUpdate) (*Label, error) {
	updated, err := r.store.Update(id, func(current *Label) (*Label, error) {
		next := current.clone()
		if params.Name != nil {
			next.Name = *params.Name
		}
		if params.Color != nil {
			next.Color = *params.Color
		}
		if params.Icon != nil {
			next.Icon = *params.Icon
		}
		if params.Description != nil {
			next.Description = *params.Description
		}
		next.ModifiedAt = time.Now().UTC()
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return updated.clone(), nil
}

// Delete removes a label and fires cascade hooks.
func (r *LabelRegistry) Delete(id string) error { return r.store.Delete(id) }

// OnRemove registers a cascade hook run after a label is deleted.
func (r *LabelRegistry) OnRemove(hook func(labelID string)) { r.store.OnRemove(hook) }

// Flush forces any pending persistence write.
func (r *LabelRegistry) Flush() { r.store.Flush() }

// Close flushes and stops the debounce timer.
func (r *LabelRegistry) Close() { r.store.Close() }
