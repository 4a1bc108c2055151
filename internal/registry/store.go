package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Entry is implemented by all registry entry types.
type Entry interface {
	EntryID() string
	EntryName() string
}

// DefaultSaveDelay is the debounce window for persistence writes. Rapid
// successive mutations within the window coalesce into one write.
const DefaultSaveDelay = 500 * time.Millisecond

// Config configures a Store.
type Config[T Entry] struct {
	// Domain names the registry ("area", "floor", "label"). It keys the
	// persistence rows and prefixes the change event type.
	Domain string

	// Decode unmarshals a persisted payload back into an entry.
	Decode func([]byte) (T, error)

	// Bus receives <domain>_registry_updated events. Optional.
	Bus EventPublisher

	// Persistence stores entry snapshots. Optional; nil keeps the
	// registry memory-only.
	Persistence Persistence

	// SaveDelay overrides DefaultSaveDelay when positive.
	SaveDelay time.Duration

	Logger *slog.Logger
}

// EventPublisher is the subset of the event bus a Store needs.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

// Store is the generic registry core shared by areas, floors and labels.
//
// It owns id generation, normalised-name uniqueness, insertion ordering,
// change events and debounced persistence. Entries are stored by pointer;
// callers must treat returned entries as immutable and go through Update
// for changes.
type Store[T Entry] struct {
	domain  string
	decode  func([]byte) (T, error)
	bus     EventPublisher
	persist Persistence
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]T
	order   []string
	names   map[string]string // normalised name -> id

	saveDelay time.Duration
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   bool
	closed    bool

	onRemove []func(id string)
}

// NewStore creates an empty store for the given domain.
func NewStore[T Entry](cfg Config[T]) *Store[T] {
	delay := cfg.SaveDelay
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{
		domain:    cfg.Domain,
		decode:    cfg.Decode,
		bus:       cfg.Bus,
		persist:   cfg.Persistence,
		logger:    logger,
		entries:   make(map[string]T),
		order:     []string{},
		names:     make(map[string]string),
		saveDelay: delay,
	}
}

// Load restores persisted entries. Call once at startup before serving.
func (s *Store[T]) Load() error {
	if s.persist == nil {
		return nil
	}

	rows, err := s.persist.Load(s.domain)
	if err != nil {
		return fmt.Errorf("loading %s registry: %w", s.domain, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		entry, err := s.decode(row.Payload)
		if err != nil {
			return fmt.Errorf("decoding %s registry entry %s: %w", s.domain, row.ID, err)
		}
		s.entries[row.ID] = entry
		s.order = append(s.order, row.ID)
		s.names[NormalizeName(entry.EntryName())] = row.ID
	}
	return nil
}

// OnRemove registers a cascade hook invoked after an entry is deleted.
// Hooks run outside the registry lock, so they may call back into other
// registries.
func (s *Store[T]) OnRemove(hook func(id string)) {
	s.mu.Lock()
	s.onRemove = append(s.onRemove, hook)
	s.mu.Unlock()
}

// Create adds a new entry. The id is generated by slugifying the name,
// suffixed with _2, _3, ... on collision. build receives the assigned id
// and returns the complete entry. Fails with ErrNameInUse when the
// normalised name already exists.
func (s *Store[T]) Create(name string, build func(id string) T) (T, error) {
	var zero T
	norm := NormalizeName(name)
	if norm == "" {
		return zero, ErrEmptyName
	}

	s.mu.Lock()
	if _, exists := s.names[norm]; exists {
		s.mu.Unlock()
		return zero, nameInUseError(name)
	}

	id := s.freeIDLocked(Slugify(name))
	entry := build(id)
	s.entries[id] = entry
	s.order = append(s.order, id)
	s.names[norm] = id
	s.mu.Unlock()

	s.scheduleSave()
	s.publish("create", id)
	return entry, nil
}

// Get returns the entry with the given id or ErrNotFound.
func (s *Store[T]) Get(id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", s.domain, id, ErrNotFound)
	}
	return entry, nil
}

// List returns all entries in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Len returns the entry count.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Update applies a partial mutation. mutate receives the current entry
// and returns the replacement (a modified copy, never the shared
// original). Renames re-validate name uniqueness; colliding with the
// entry's own previous name is allowed.
func (s *Store[T]) Update(id string, mutate func(current T) (T, error)) (T, error) {
	var zero T

	s.mu.Lock()
	current, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return zero, fmt.Errorf("%s %q: %w", s.domain, id, ErrNotFound)
	}

	updated, err := mutate(current)
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}

	oldNorm := NormalizeName(current.EntryName())
	newNorm := NormalizeName(updated.EntryName())
	if newNorm == "" {
		s.mu.Unlock()
		return zero, ErrEmptyName
	}
	if newNorm != oldNorm {
		if other, exists := s.names[newNorm]; exists && other != id {
			s.mu.Unlock()
			return zero, nameInUseError(updated.EntryName())
		}
		delete(s.names, oldNorm)
		s.names[newNorm] = id
	}

	s.entries[id] = updated
	s.mu.Unlock()

	s.scheduleSave()
	s.publish("update", id)
	return updated, nil
}

// Delete removes an entry, runs cascade hooks and fires a remove event.
// Hooks run after the entry is gone and outside the lock, so a hook can
// call back into this or another registry without deadlocking. Readers
// cannot observe the half-cleared state: back-references dangle only
// until the hooks return, and lookups of the deleted id already miss.
func (s *Store[T]) Delete(id string) error {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s %q: %w", s.domain, id, ErrNotFound)
	}

	delete(s.entries, id)
	delete(s.names, NormalizeName(entry.EntryName()))
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	hooks := s.onRemove
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(id)
	}

	s.scheduleSave()
	s.publish("remove", id)
	return nil
}

// Flush writes any pending snapshot immediately.
func (s *Store[T]) Flush() {
	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	pending := s.pending
	s.pending = false
	s.saveMu.Unlock()

	if pending {
		s.save()
	}
}

// Close flushes pending writes and stops the debounce timer.
func (s *Store[T]) Close() {
	s.saveMu.Lock()
	s.closed = true
	s.saveMu.Unlock()
	s.Flush()
}

// freeIDLocked returns base, or base_2, base_3, ... on collision.
// Caller holds s.mu.
func (s *Store[T]) freeIDLocked(base string) string {
	if _, taken := s.entries[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		id := fmt.Sprintf("%s_%d", base, n)
		if _, taken := s.entries[id]; !taken {
			return id
		}
	}
}

func (s *Store[T]) publish(action, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(s.domain+"_registry_updated", map[string]any{
		"action":         action,
		s.domain + "_id": id,
	})
}

func (s *Store[T]) scheduleSave() {
	if s.persist == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.closed {
		return
	}
	s.pending = true
	if s.saveTimer == nil {
		s.saveTimer = time.AfterFunc(s.saveDelay, func() {
			s.saveMu.Lock()
			s.pending = false
			s.saveMu.Unlock()
			s.save()
		})
	} else {
		s.saveTimer.Reset(s.saveDelay)
	}
}

// save snapshots all entries and writes them through the persistence
// layer. Failures are logged; the in-memory state stays authoritative.
func (s *Store[T]) save() {
	s.mu.RLock()
	rows := make([]PersistedEntry, 0, len(s.order))
	for i, id := range s.order {
		payload, err := json.Marshal(s.entries[id])
		if err != nil {
			s.mu.RUnlock()
			s.logger.Error("registry snapshot failed", "registry", s.domain, "id", id, "error", err)
			return
		}
		rows = append(rows, PersistedEntry{ID: id, Position: i, Payload: payload})
	}
	s.mu.RUnlock()

	if err := s.persist.Save(s.domain, rows); err != nil {
		s.logger.Error("registry save failed", "registry", s.domain, "error", err)
	}
}
