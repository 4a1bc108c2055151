package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EventPublisher receives device change events.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

// MetricRecorder receives numeric state values for telemetry.
// Implemented by the telemetry client; recording must never block.
type MetricRecorder interface {
	WriteDeviceMetric(deviceID string, measurement string, value float64)
}

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache and kept in sync by
// the CRUD operations. All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device
	cacheMu sync.RWMutex
	logger  Logger

	bus      EventPublisher
	recorder MetricRecorder
}

// NewRegistry creates a new device registry over the given repository.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetBus sets the event publisher for change notifications.
func (r *Registry) SetBus(bus EventPublisher) {
	r.bus = bus
}

// SetRecorder sets the telemetry recorder for numeric state values.
func (r *Registry) SetRecorder(recorder MetricRecorder) {
	r.recorder = recorder
}

// RefreshCache reloads all devices from the repository into the cache.
// Call on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.DeepCopy()
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// Get retrieves a device by ID.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}

	// Might be a device created through another path and not yet cached.
	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = d.DeepCopy()
	r.cacheMu.Unlock()

	return d, nil
}

// List retrieves all devices as deep copies.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, *d.DeepCopy())
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// ListByArea retrieves all devices in a specific area.
func (r *Registry) ListByArea(ctx context.Context, areaID string) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		var devices []Device
		for _, d := range r.cache {
			if d.AreaID != nil && *d.AreaID == areaID {
				devices = append(devices, *d.DeepCopy())
			}
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.ListByArea(ctx, areaID)
}

// ListByDomain retrieves all devices in a specific domain.
func (r *Registry) ListByDomain(ctx context.Context, domain Domain) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		var devices []Device
		for _, d := range r.cache {
			if d.Domain == domain {
				devices = append(devices, *d.DeepCopy())
			}
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.ListByDomain(ctx, domain)
}

// FindByAddress returns the first device whose address contains the
// given device_address value. Used by the MQTT ingestion path to map a
// bridge report onto a registered device.
func (r *Registry) FindByAddress(protocol Protocol, deviceAddress string) (*Device, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	for _, d := range r.cache {
		if d.Protocol != protocol {
			continue
		}
		if addr, ok := d.Address["device_address"].(string); ok && addr == deviceAddress {
			return d.DeepCopy(), true
		}
	}
	return nil, false
}

// Create validates and persists a new device.
// ID and slug are generated when empty.
func (r *Registry) Create(ctx context.Context, d *Device) error {
	if d.ID == "" {
		d.ID = GenerateID()
	}
	if d.Slug == "" {
		d.Slug = GenerateSlug(d.Name)
	}

	if err := ValidateDevice(d); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	r.publish("create", d.ID)
	r.logger.Info("device created", "id", d.ID, "name", d.Name)
	return nil
}

// Update validates and persists changes to an existing device.
func (r *Registry) Update(ctx context.Context, d *Device) error {
	existing, err := r.Get(ctx, d.ID)
	if err != nil {
		return err
	}
	if d.Name != existing.Name && d.Slug == existing.Slug {
		d.Slug = GenerateSlug(d.Name)
	}

	if err := ValidateDevice(d); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	r.publish("update", d.ID)
	r.logger.Info("device updated", "id", d.ID, "name", d.Name)
	return nil
}

// Delete removes a device.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.publish("remove", id)
	r.logger.Info("device deleted", "id", id)
	return nil
}

// SetState merges a partial state update into a device, fires a
// state_changed event and records numeric values to telemetry.
// Optimised for frequent updates from protocol bridges.
func (r *Registry) SetState(ctx context.Context, id string, state State) error {
	if err := r.repo.UpdateState(ctx, id, state); err != nil {
		return err
	}

	now := time.Now().UTC()
	var merged State

	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		updated := cached.DeepCopy()
		if updated.State == nil {
			updated.State = State{}
		}
		for k, v := range state {
			updated.State[k] = deepCopyValue(v)
		}
		updated.StateUpdatedAt = &now
		r.cache[id] = updated
		merged = deepCopyMap(updated.State)
	}
	r.cacheMu.Unlock()

	if r.bus != nil {
		r.bus.Publish("state_changed", map[string]any{
			"device_id": id,
			"new_state": map[string]any(merged),
		})
	}

	if r.recorder != nil {
		for k, v := range state {
			if f, ok := toFloat(v); ok {
				r.recorder.WriteDeviceMetric(id, k, f)
			}
		}
	}

	r.logger.Debug("device state updated", "id", id)
	return nil
}

// ClearArea detaches all devices from a deleted area. Wired as the area
// registry's OnRemove hook.
func (r *Registry) ClearArea(ctx context.Context, areaID string) {
	for _, d := range r.devicesMatching(func(d *Device) bool {
		return d.AreaID != nil && *d.AreaID == areaID
	}) {
		d.AreaID = nil
		if err := r.Update(ctx, d); err != nil {
			r.logger.Error("clearing area reference", "device_id", d.ID, "error", err)
		}
	}
}

// RemoveLabel strips a deleted label from all devices. Wired as the
// label registry's OnRemove hook.
func (r *Registry) RemoveLabel(ctx context.Context, labelID string) {
	for _, d := range r.devicesMatching(func(d *Device) bool {
		for _, l := range d.Labels {
			if l == labelID {
				return true
			}
		}
		return false
	}) {
		keep := d.Labels[:0:0]
		for _, l := range d.Labels {
			if l != labelID {
				keep = append(keep, l)
			}
		}
		d.Labels = keep
		if err := r.Update(ctx, d); err != nil {
			r.logger.Error("removing label reference", "device_id", d.ID, "error", err)
		}
	}
}

// devicesMatching snapshots cached devices passing the filter.
func (r *Registry) devicesMatching(match func(*Device) bool) []*Device {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	var out []*Device
	for _, d := range r.cache {
		if match(d) {
			out = append(out, d.DeepCopy())
		}
	}
	return out
}

func (r *Registry) publish(action, id string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish("device_registry_updated", map[string]any{
		"action":    action,
		"device_id": id,
	})
}

// toFloat extracts a float64 from JSON-decoded numeric values.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
