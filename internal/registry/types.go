package registry

import "time"

// Area is a physical zone of the home (kitchen, hallway, garage).
// Devices reference areas by id; an area may sit on a floor.
type Area struct {
	ID         string    `json:"area_id"`
	Name       string    `json:"name"`
	FloorID    string    `json:"floor_id,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	Picture    string    `json:"picture,omitempty"`
	Aliases    []string  `json:"aliases,omitempty"`
	Labels     []string  `json:"labels,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (a *Area) EntryID() string   { return a.ID }
func (a *Area) EntryName() string { return a.Name }

func (a *Area) clone() *Area {
	c := *a
	c.Aliases = append([]string(nil), a.Aliases...)
	c.Labels = append([]string(nil), a.Labels...)
	return &c
}

// Floor is a vertical level of the home grouping areas.
type Floor struct {
	ID         string    `json:"floor_id"`
	Name       string    `json:"name"`
	Level      int       `json:"level"`
	Icon       string    `json:"icon,omitempty"`
	Aliases    []string  `json:"aliases,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (f *Floor) EntryID() string   { return f.ID }
func (f *Floor) EntryName() string { return f.Name }

func (f *Floor) clone() *Floor {
	c := *f
	c.Aliases = append([]string(nil), f.Aliases...)
	return &c
}

// Label is a free-form tag attachable to areas and devices.
type Label struct {
	ID          string    `json:"label_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

func (l *Label) EntryID() string   { return l.ID }
func (l *Label) EntryName() string { return l.Name }

func (l *Label) clone() *Label {
	c := *l
	return &c
}
